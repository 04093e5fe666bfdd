package runner

import "fmt"

// CommandError 命令执行失败
type CommandError struct {
	Op     string
	Result Result
}

func (e *CommandError) Error() string {
	msg := e.Result.ErrorMessage
	if stderr := e.Result.Stderr; stderr != "" {
		msg += ": " + stderr
	}
	return fmt.Sprintf("%s: (%d) - %s", e.Op, e.Result.ExitCode, msg)
}

// Check 把失败的 Result 转换为 *CommandError，成功时返回 nil
func Check(op string, res Result) error {
	if res.Success {
		return nil
	}
	return &CommandError{Op: op, Result: res}
}

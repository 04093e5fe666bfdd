package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Result 外部命令执行结果
type Result struct {
	Success      bool
	ExitCode     int
	Stdout       string
	Stderr       string
	ErrorMessage string
}

// Command 一次外部命令调用
type Command struct {
	Name string
	Args []string
	Env  map[string]string // 追加到当前进程环境变量之上
	Dir  string
}

// String 返回用于日志的命令行，不包含环境变量
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner 命令执行器
//
// Run 从不返回 error，所有失败都编码在 Result 中，由调用方解释。
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ShellRunner 基于 os/exec 的命令执行器
type ShellRunner struct{}

// NewShellRunner 创建执行器
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// Run 执行一个外部进程并等待其退出
func (r *ShellRunner) Run(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		env := os.Environ()
		for key, value := range c.Env {
			env = append(env, key+"="+value)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		res.Success = true
		return res
	}

	res.ErrorMessage = err.Error()
	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
	}
	return res
}

// Shell 构造 sh -c 命令
func Shell(line string) Command {
	return Command{Name: "sh", Args: []string{"-c", line}}
}

// Expand 替换命令中的 ${KEY} 变量
func Expand(line string, vars map[string]string) string {
	for key, value := range vars {
		line = strings.ReplaceAll(line, "${"+key+"}", value)
	}
	return line
}

// RunShell 通过 sh -c 执行一行命令
func RunShell(ctx context.Context, r Runner, line string) Result {
	return r.Run(ctx, Shell(line))
}

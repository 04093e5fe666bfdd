package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider 未配置或不支持的提供商
var ErrUnknownProvider = errors.New("不支持的提供商")

// RecordOp TXT 记录集操作类型
type RecordOp int

const (
	// OpCreate 创建（空）记录集
	OpCreate RecordOp = iota + 1
	// OpAdd 向记录集追加一个 TXT 值
	OpAdd
	// OpRemove 从记录集移除一个 TXT 值，保留记录集
	OpRemove
	// OpDelete 删除整个记录集
	OpDelete
)

func (op RecordOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("RecordOp(%d)", int(op))
	}
}

// RecordRequest 一次 DNS 记录集操作
type RecordRequest struct {
	Op    RecordOp
	Zone  string // 主域名 (如 example.com)
	Name  string // 相对区域的记录集名称 (如 _acme-challenge.www)
	TTL   int    // 秒，仅 OpCreate / OpAdd 使用
	Value string // TXT 值，仅 OpAdd / OpRemove 使用
}

// DNSRecord DNS记录
type DNSRecord struct {
	RecordID string // 记录ID
	Zone     string // 主域名
	RR       string // 主机记录 (子域名)
	Type     string // 记录类型
	Values   []string
	TTL      int
}

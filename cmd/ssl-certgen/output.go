package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"

	"ssl-certgen/internal/core"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	labelColor   = color.New(color.FgCyan)
)

type summary struct {
	RunID      string            `json:"run_id"`
	CommonName string            `json:"common_name"`
	ExpiresAt  string            `json:"expires_at"`
	CertID     string            `json:"cert_id,omitempty"`
	Files      map[string]string `json:"files"`
}

func newSummary(res *core.Result) summary {
	s := summary{
		RunID:      res.RunID,
		CommonName: res.CommonName,
		ExpiresAt:  time.UnixMilli(res.Certificate.ExpiryDateEpochMs).Format(time.RFC3339),
		CertID:     res.CertID,
		Files:      map[string]string{},
	}

	f := res.Files
	for name, path := range map[string]string{
		"cert":       f.Cert,
		"key":        f.Key,
		"fullchain":  f.Fullchain,
		"pfx":        f.PFX,
		"passphrase": f.Passphrase,
	} {
		if path != "" {
			s.Files[name] = path
		}
	}
	return s
}

func printResult(res *core.Result) {
	s := newSummary(res)
	_, _ = successColor.Fprintf(color.Output, "✓ 证书签发成功: %s\n", s.CommonName)
	printField("过期时间", s.ExpiresAt)
	for _, name := range []string{"cert", "key", "fullchain", "pfx", "passphrase"} {
		if path, ok := s.Files[name]; ok {
			printField(name, path)
		}
	}
	if s.CertID != "" {
		printField("证书ID", s.CertID)
	}
	printField("run_id", s.RunID)
}

func printField(label, value string) {
	_, _ = labelColor.Fprintf(color.Output, "  %-10s ", label)
	_, _ = fmt.Fprintln(color.Output, value)
}

func printJSON(res *core.Result) error {
	enc := json.NewEncoder(color.Output)
	enc.SetIndent("", "  ")
	return enc.Encode(newSummary(res))
}

func printError(format string, args ...any) {
	_, _ = errorColor.Fprintf(color.Error, "✗ "+format+"\n", args...)
}

package domain

import "strings"

// ExtractSubDomain 提取相对于区域的主机记录部分
// 例如: _acme-challenge.www.example.com 中提取 _acme-challenge.www，
// 区域本身返回 @，已是主机记录时原样返回
func ExtractSubDomain(fullRecord, zone string) string {
	name := strings.TrimSuffix(fullRecord, ".")
	if strings.EqualFold(name, zone) {
		return "@"
	}
	if len(name) > len(zone)+1 && strings.EqualFold(name[len(name)-len(zone)-1:], "."+zone) {
		return name[:len(name)-len(zone)-1]
	}
	return fullRecord
}

// FQDN 将记录集名称与区域拼接为完整域名
func FQDN(recordSetName, zone string) string {
	if recordSetName == "" || recordSetName == "@" {
		return zone
	}
	return recordSetName + "." + zone
}

// MatchDomain 检查域名是否匹配（支持通配符）
func MatchDomain(certDomain, targetDomain string) bool {
	if strings.EqualFold(certDomain, targetDomain) {
		return true
	}

	// 通配符只匹配一级
	if strings.HasPrefix(certDomain, "*.") {
		parent := strings.TrimPrefix(certDomain, "*.")
		i := strings.Index(targetDomain, ".")
		return i > 0 && strings.EqualFold(targetDomain[i+1:], parent)
	}

	return false
}

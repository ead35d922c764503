package moderation

import "regexp"

// malwarePattern 恶意内容特征
type malwarePattern struct {
	id string
	re *regexp.Regexp
}

// 固定的恶意内容特征集：脚本注入、shell调用和可疑编码载荷标记
// 特征扫描不依赖外部服务，始终在语言分类之前执行
var malwarePatterns = []malwarePattern{
	{id: "script-eval", re: regexp.MustCompile(`eval\(.*\)`)},
	{id: "script-tag", re: regexp.MustCompile(`<script>.*</script>`)},
	{id: "hex-escape", re: regexp.MustCompile(`(?i)\\x[0-9a-f]{2}`)},
	{id: "powershell-encoded", re: regexp.MustCompile(`powershell -e`)},
	{id: "base64-decode", re: regexp.MustCompile(`base64_decode`)},
}

// ScanMalwarePatterns 扫描原始摘录中的恶意内容特征
// 返回命中的特征标识，未命中返回空串
func ScanMalwarePatterns(excerpt string) string {
	for _, p := range malwarePatterns {
		if p.re.MatchString(excerpt) {
			return p.id
		}
	}
	return ""
}

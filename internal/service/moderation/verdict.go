// Package moderation 提供上传内容的审核分类
// 摘录文本先经本地恶意内容特征扫描，再逐词元调用外部分类服务；
// 外部服务不可用时降级为本地词表匹配，降级不对调用方表现为失败
package moderation

// VerdictKind 审核结论类别
type VerdictKind int

const (
	// VerdictClean 内容通过审核
	VerdictClean VerdictKind = iota
	// VerdictDegradedClean 外部分类服务不可用，本地降级检查通过（置信度降低）
	VerdictDegradedClean
	// VerdictRejectedProfanity 包含不当语言
	VerdictRejectedProfanity
	// VerdictRejectedMalware 命中恶意内容特征
	VerdictRejectedMalware
)

// Verdict 审核结论
// 外部服务的响应结构在不同版本间并不稳定，统一由客户端适配层
// 转换为本结构，内部代码不依赖外部线上格式
type Verdict struct {
	Kind VerdictKind `json:"kind"`
	// Token 触发拒绝的词元，仅VerdictRejectedProfanity时有值
	Token string `json:"token,omitempty"`
	// Confidence 分类置信度，仅VerdictRejectedProfanity时有值
	Confidence float64 `json:"confidence,omitempty"`
	// PatternID 命中的恶意特征标识，仅VerdictRejectedMalware时有值
	PatternID string `json:"pattern_id,omitempty"`
	// Degraded 结论是否产生于降级路径
	Degraded bool `json:"degraded,omitempty"`
}

// Rejected 是否为拒绝结论
// 拒绝结论禁止任何对象存储和元数据写入
func (v Verdict) Rejected() bool {
	return v.Kind == VerdictRejectedProfanity || v.Kind == VerdictRejectedMalware
}

// String 返回结论的存储表示
func (v Verdict) String() string {
	switch v.Kind {
	case VerdictClean:
		return "clean"
	case VerdictDegradedClean:
		return "degraded_clean"
	case VerdictRejectedProfanity:
		return "rejected_profanity"
	case VerdictRejectedMalware:
		return "rejected_malware"
	default:
		return "unknown"
	}
}

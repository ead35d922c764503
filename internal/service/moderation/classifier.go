package moderation

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zapsync/zapsync/config"
	"github.com/zapsync/zapsync/internal/logger"
)

// 词元归一化：非单词字符替换为空格后按空白切分
var nonWordChars = regexp.MustCompile(`[^\w\s]`)

// Classifier 内容审核分类器
// 管线中唯一允许发起出站网络调用的组件
type Classifier struct {
	client     *Client
	localWords map[string]struct{} // 本地降级词表
	maxTokens  int                 // 单次审核最多分类的词元数
}

// NewClassifier 根据配置创建分类器
func NewClassifier(cfg config.ModerationConfig) *Classifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}

	localWords := make(map[string]struct{}, len(cfg.LocalWordList))
	for _, w := range cfg.LocalWordList {
		localWords[strings.ToLower(w)] = struct{}{}
	}

	return &Classifier{
		client:     NewClient(cfg.ServiceURL, timeout),
		localWords: localWords,
		maxTokens:  maxTokens,
	}
}

// NewClassifierWithClient 使用指定客户端创建分类器，供测试注入
func NewClassifierWithClient(client *Client, localWords []string, maxTokens int) *Classifier {
	words := make(map[string]struct{}, len(localWords))
	for _, w := range localWords {
		words[strings.ToLower(w)] = struct{}{}
	}
	return &Classifier{
		client:     client,
		localWords: words,
		maxTokens:  maxTokens,
	}
}

// Classify 对摘录文本进行审核分类
//
// 处理顺序：
//  1. 空摘录直接通过，没有文本不构成违规证据
//  2. 恶意内容特征扫描，廉价且确定，命中立即拒绝
//  3. 逐词元调用外部分类服务，遇到首个拒绝即停止
//  4. 外部服务失败时降级为本地词表匹配，不向上抛错
func (c *Classifier) Classify(ctx context.Context, excerpt string) Verdict {
	if strings.TrimSpace(excerpt) == "" {
		return Verdict{Kind: VerdictClean}
	}

	// 静态特征扫描优先于任何网络调用，服务可用性不影响此结论
	if patternID := ScanMalwarePatterns(excerpt); patternID != "" {
		logger.WithFields(logrus.Fields{
			"pattern_id": patternID,
		}).Warn("摘录命中恶意内容特征")
		return Verdict{Kind: VerdictRejectedMalware, PatternID: patternID}
	}

	tokens := Tokenize(excerpt, c.maxTokens)
	if len(tokens) == 0 {
		return Verdict{Kind: VerdictClean}
	}

	for i, token := range tokens {
		result, err := c.client.CheckToken(ctx, token)
		if err != nil {
			// 外部服务不可用：不重试，对剩余词元走本地降级路径
			// 逐词元重试会让延迟随内容长度线性放大
			logger.WithFields(logrus.Fields{
				"word":   token,
				"source": "remote",
				"error":  err.Error(),
			}).Warn("分类服务调用失败，降级为本地词表")
			return c.classifyLocally(tokens[i:])
		}

		logger.WithFields(logrus.Fields{
			"word":          token,
			"source":        "remote",
			"should_reject": result.ShouldReject,
			"confidence":    result.Confidence,
		}).Debug("分类请求完成")

		if result.ShouldReject {
			// 首个违规即终止，剩余词元无需分类
			return Verdict{
				Kind:       VerdictRejectedProfanity,
				Token:      token,
				Confidence: result.Confidence,
			}
		}
	}

	return Verdict{Kind: VerdictClean}
}

// classifyLocally 本地词表降级匹配
// 命中返回降级拒绝，未命中返回DegradedClean表示降低置信度的通过
func (c *Classifier) classifyLocally(tokens []string) Verdict {
	for _, token := range tokens {
		if _, hit := c.localWords[token]; hit {
			logger.WithFields(logrus.Fields{
				"word":   token,
				"source": "local-fallback",
			}).Warn("本地词表命中")
			return Verdict{
				Kind:       VerdictRejectedProfanity,
				Token:      token,
				Confidence: 0,
				Degraded:   true,
			}
		}
	}
	return Verdict{Kind: VerdictDegradedClean, Degraded: true}
}

// Tokenize 归一化摘录并切分词元
// 小写化、去标点、按空白切分、丢弃长度不超过2的词元并去重，
// 数量上限限制外部调用次数
func Tokenize(excerpt string, maxTokens int) []string {
	normalized := nonWordChars.ReplaceAllString(strings.ToLower(excerpt), " ")

	seen := make(map[string]struct{})
	tokens := make([]string, 0, maxTokens)
	for _, word := range strings.Fields(normalized) {
		if len(word) <= 2 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
		if len(tokens) >= maxTokens {
			break
		}
	}
	return tokens
}

package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/zapsync/zapsync/internal/logger"
)

// ExtractionOutcome 内容提取结果类别
type ExtractionOutcome int

const (
	// ExtractionSucceeded 提取成功
	ExtractionSucceeded ExtractionOutcome = iota
	// ExtractionUnsupportedKind 不承载文本的类型（图片/视频/音频等），零成本跳过
	ExtractionUnsupportedKind
	// ExtractionParseFailed 结构化解析失败，视为"无摘录可用"而非拒绝
	ExtractionParseFailed
)

// ExtractedContent 提取出的有界文本摘录
// 仅在单次管线运行期间存活
type ExtractedContent struct {
	Excerpt string
	Outcome ExtractionOutcome
}

// Extractor 文件内容提取器
// 对文本承载类型产出定长摘录供审核分类使用；提取失败只记日志，
// 不会中断管线
type Extractor struct {
	excerptLimit int // 摘录最大字节数
}

// NewExtractor 创建内容提取器
func NewExtractor(excerptLimit int) *Extractor {
	if excerptLimit <= 0 {
		excerptLimit = 5000
	}
	return &Extractor{excerptLimit: excerptLimit}
}

// Extract 根据声明的文件类型提取文本摘录
// 无论何种类型，摘录都截断到固定上限以约束下游审核成本
func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) ExtractedContent {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".txt", ".md":
		return ExtractedContent{
			Excerpt: e.truncate(string(data)),
			Outcome: ExtractionSucceeded,
		}
	case ".pdf":
		return e.parseWith(ctx, data, fileName, func() (einoparser.Parser, error) {
			return pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
		})
	case ".doc", ".docx":
		return e.parseWith(ctx, data, fileName, func() (einoparser.Parser, error) {
			return docx.NewDocxParser(ctx, &docx.Config{
				ToSections:      false,
				IncludeComments: false,
				IncludeHeaders:  true,
				IncludeFooters:  false,
				IncludeTables:   true,
			})
		})
	default:
		return ExtractedContent{Outcome: ExtractionUnsupportedKind}
	}
}

// parseWith 使用给定解析器提取文本
// 解析失败返回ExtractionParseFailed，由下游按"无摘录"处理
func (e *Extractor) parseWith(ctx context.Context, data []byte, fileName string, newParser func() (einoparser.Parser, error)) ExtractedContent {
	fileParser, err := newParser()
	if err != nil {
		logger.Warnf("创建解析器失败: 文件=%s, 错误=%v", fileName, err)
		return ExtractedContent{Outcome: ExtractionParseFailed}
	}

	docs, err := fileParser.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		logger.Warnf("文档解析失败: 文件=%s, 错误=%v", fileName, err)
		return ExtractedContent{Outcome: ExtractionParseFailed}
	}

	var sb strings.Builder
	for _, doc := range docs {
		if sb.Len() >= e.excerptLimit {
			break
		}
		sb.WriteString(doc.Content)
		sb.WriteString("\n")
	}

	return ExtractedContent{
		Excerpt: e.truncate(sb.String()),
		Outcome: ExtractionSucceeded,
	}
}

// truncate 将摘录截断到固定上限
func (e *Extractor) truncate(text string) string {
	if len(text) > e.excerptLimit {
		return text[:e.excerptLimit]
	}
	return text
}

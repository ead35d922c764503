package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenResult 单个词元的分类结果
// 由适配层从外部服务响应转换而来
type TokenResult struct {
	ShouldReject bool    `json:"should_reject"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"rejection_reason,omitempty"`
}

// classifyRequest 外部分类服务的请求体
type classifyRequest struct {
	Text string `json:"text"`
}

// classifyResponse 外部分类服务的响应体
// 服务的线上格式在不同版本间有出入，这里只取稳定字段
type classifyResponse struct {
	ShouldReject bool    `json:"should_reject"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"rejection_reason"`
}

// Client 外部分类服务客户端
// 每次调用受固定超时约束；调用失败不在客户端层重试，
// 由分类器统一进入本地降级路径
type Client struct {
	serviceURL string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient 创建分类服务客户端
func NewClient(serviceURL string, timeout time.Duration) *Client {
	return &Client{
		serviceURL: serviceURL,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// CheckToken 对单个词元发起分类请求
func (c *Client) CheckToken(ctx context.Context, token string) (*TokenResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Text: token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classification service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 读掉响应体以复用连接
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classification service returned status %d", resp.StatusCode)
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}

	return &TokenResult{
		ShouldReject: cr.ShouldReject,
		Confidence:   cr.Confidence,
		Reason:       cr.Reason,
	}, nil
}

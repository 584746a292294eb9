// Package syncclient 远端快照服务客户端（GET /api/data, POST /api/save-log）。
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avemasa0625-dev/gantt-pro-app/internal/model"
)

const (
	dataPath    = "/api/data"
	savePath    = "/api/save-log"
	maxBodySize = 16 << 20
)

// ErrNoLogs 远端响应中没有 logs 字段
var ErrNoLogs = errors.New("远端响应不含作业日志")

// DataResponse GET /api/data 的响应结构
type DataResponse struct {
	Overall []json.RawMessage `json:"overall"`
	Product []json.RawMessage `json:"product"`
	Parts   []json.RawMessage `json:"parts"`
	Logs    *model.WorkLog    `json:"logs"`
}

// Client 远端快照客户端
type Client struct {
	baseURL string
	http    *http.Client
}

// New 创建客户端；timeout 为单次请求上限
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL 服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Load 读取远端快照
func (c *Client) Load(ctx context.Context) (*model.WorkLog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+dataPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求远端快照失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("远端快照返回状态码 %d", resp.StatusCode)
	}

	var body DataResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, fmt.Errorf("解析远端快照失败: %w", err)
	}
	if body.Logs == nil {
		return nil, ErrNoLogs
	}
	body.Logs.Normalize()
	return body.Logs, nil
}

// Save 上传完整作业日志
func (c *Client) Save(ctx context.Context, log model.WorkLog) error {
	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+savePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("上传作业日志失败: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("上传作业日志返回状态码 %d", resp.StatusCode)
	}
	return nil
}

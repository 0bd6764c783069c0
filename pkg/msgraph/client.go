// Package msgraph 提供了一个与 Microsoft Graph 交互的客户端，
// 用于查询用户的组成员关系和按 ID 获取组。
package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kartverket/frisk-backend/internal/config"
)

// ErrGroupNotFound 表示目录中不存在请求的组。
var ErrGroupNotFound = errors.New("msgraph: group not found")

// Group 是 Graph 返回的组对象中我们关心的字段。
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Client 是 Microsoft Graph 的 REST 客户端。
// 使用 client credentials 流程获取应用令牌，并在过期前复用。
type Client struct {
	cfg        config.EntraConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient 创建一个新的 Graph 客户端实例。
// 每个出站请求都受 timeout_seconds 限制，目录不可达时由调用方决定失败语义。
func NewClient(cfg config.EntraConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetMemberGroups 返回用户所属的全部组（跟随分页）。
func (c *Client) GetMemberGroups(ctx context.Context, userID string) ([]Group, error) {
	next := fmt.Sprintf(
		"%s/users/%s/memberOf/microsoft.graph.group?$select=id,displayName",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(userID),
	)

	var groups []Group
	for next != "" {
		var page struct {
			Value    []Group `json:"value"`
			NextLink string  `json:"@odata.nextLink"`
		}
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		groups = append(groups, page.Value...)
		next = page.NextLink
	}
	return groups, nil
}

// GetGroup 按 ID 获取单个组，组不存在时返回 ErrGroupNotFound。
func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	endpoint := fmt.Sprintf(
		"%s/groups/%s?$select=id,displayName",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(groupID),
	)

	var group Group
	if err := c.get(ctx, endpoint, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// get 发送一个带应用令牌的 GET 请求，并将响应 JSON 解析到 out 中。
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	accessToken, err := c.acquireToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("创建 Graph 请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("调用 Graph 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrGroupNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Graph 返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 Graph 响应失败: %w", err)
	}
	return nil
}

// acquireToken 获取（或复用）client credentials 应用令牌。
func (c *Client) acquireToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 提前 60 秒视为过期，避免临界请求带着将失效的令牌出门
	if c.accessToken != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("scope", "https://graph.microsoft.com/.default")

	tokenURL := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.cfg.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("创建令牌请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("获取 Graph 令牌失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("令牌端点返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("解析令牌响应失败: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

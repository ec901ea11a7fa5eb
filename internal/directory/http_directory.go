package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/d60-Lab/chirp/internal/model"
)

// upstreamUser 身份服务返回的原始用户记录，字段远多于我们需要的
type upstreamUser struct {
	ID              string  `json:"id"`
	Username        *string `json:"username"`
	ProfileImageURL string  `json:"profile_image_url"`
	ImageURL        string  `json:"image_url"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	EmailAddresses  []any   `json:"email_addresses"`
	PhoneNumbers    []any   `json:"phone_numbers"`
	PublicMetadata  any     `json:"public_metadata"`
	PrivateMetadata any     `json:"private_metadata"`
	LastSignInAt    *int64  `json:"last_sign_in_at"`
	Banned          bool    `json:"banned"`
}

// toProfile 过滤出可以给客户端看的字段；用户名为空时保留空串，由调用方决定是否接受
func (u upstreamUser) toProfile() model.AuthorProfile {
	p := model.AuthorProfile{ID: u.ID, ProfileImageURL: u.ProfileImageURL}
	if p.ProfileImageURL == "" {
		p.ProfileImageURL = u.ImageURL
	}
	if u.Username != nil {
		p.Username = *u.Username
	}
	return p
}

// HTTPDirectory 通过身份服务的 REST 接口查询用户
type HTTPDirectory struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewHTTPDirectory(baseURL, secretKey string, timeout time.Duration) *HTTPDirectory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPDirectory{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient 替换底层 client（用于埋点 transport 或测试）
func (d *HTTPDirectory) WithHTTPClient(c *http.Client) *HTTPDirectory {
	d.client = c
	return d
}

func (d *HTTPDirectory) GetUsers(ctx context.Context, ids []string) ([]model.AuthorProfile, error) {
	ids, err := prepareIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.AuthorProfile{}, nil
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("user_id", id)
	}
	q.Set("limit", strconv.Itoa(MaxIDsPerCall))

	users, err := d.listUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.AuthorProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.toProfile())
	}
	return out, nil
}

func (d *HTTPDirectory) GetByUsername(ctx context.Context, username string) (*model.AuthorProfile, error) {
	q := url.Values{}
	q.Add("username", username)
	q.Set("limit", "1")

	users, err := d.listUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username != nil && *u.Username == username {
			p := u.toProfile()
			return &p, nil
		}
	}
	return nil, ErrUserNotFound
}

func (d *HTTPDirectory) listUsers(ctx context.Context, q url.Values) ([]upstreamUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if d.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.secretKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("directory: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var users []upstreamUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("directory: decode users: %w", err)
	}
	return users, nil
}

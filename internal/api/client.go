package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/httpx"
	"github.com/drivedeck/drivedeck/internal/logging"
	"github.com/drivedeck/drivedeck/internal/models"
	"github.com/drivedeck/drivedeck/internal/session"
)

// retryLogger adapts the structured logger to the
// retryablehttp.LeveledLogger interface. Info/Debug output from the
// retry layer is noise, so only warnings and errors pass through.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Interface("details", keysAndValues).Msg("retry: " + msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Interface("details", keysAndValues).Msg("retry: " + msg)
}

// Client is the REST client for the file platform.
//
// Endpoint versions:
//   - /api/v1: auth and admin (users, groups, permissions)
//   - /api/v2: files, folders, trash
//
// Auth state lives in the injected session; the client never caches
// the token. A 401 from any endpoint expires the session exactly once
// and surfaces as ErrSessionExpired.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	session    *session.Session
	log        *logging.Logger
}

// NewClient creates an API client bound to the given session.
func NewClient(cfg *config.Config, sess *session.Session, log *logging.Logger) (*Client, error) {
	httpClient, err := httpx.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = &retryLogger{log: log}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.PlatformURL, "/"),
		session:    sess,
		log:        log,
	}, nil
}

// doRequest performs an HTTP request with authentication.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Str("method", method).Str("path", path).Err(err).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == nethttp.StatusUnauthorized {
		resp.Body.Close()
		c.log.Warn().Str("method", method).Str("path", path).Msg("token rejected, expiring session")
		c.session.Expire()
		return nil, ErrSessionExpired
	}

	return resp, nil
}

// decodeResponse checks the status code and decodes the JSON body into out.
// Pass nil out for endpoints with no response body.
func decodeResponse(resp *nethttp.Response, operation string, wantStatus int, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == nethttp.StatusConflict {
			return fmt.Errorf("%s: %w", operation, ErrItemAlreadyExists)
		}
		if resp.StatusCode == nethttp.StatusNotFound {
			return fmt.Errorf("%s: %w", operation, ErrNotFound)
		}
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

// --- Auth (/api/v1) ---

// Login exchanges credentials for a bearer token and installs it into
// the session.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/auth/login/", models.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var login models.LoginResponse
	if err := decodeResponse(resp, "login", nethttp.StatusOK, &login); err != nil {
		return nil, err
	}

	c.session.SetToken(login.Token)
	return &login, nil
}

// Signup registers a new account. The caller still has to log in.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/auth/signup/", req)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeResponse(resp, "signup", nethttp.StatusCreated, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Folders and files (/api/v2) ---

// GetRootFolders lists the caller's top-level folders.
func (c *Client) GetRootFolders(ctx context.Context) ([]models.FolderInfo, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v2/folders/roots/", nil)
	if err != nil {
		return nil, err
	}

	var roots models.RootFolders
	if err := decodeResponse(resp, "get root folders", nethttp.StatusOK, &roots); err != nil {
		return nil, err
	}
	return roots.Roots, nil
}

// ListFolderContents lists the immediate children of a folder.
func (c *Client) ListFolderContents(ctx context.Context, folderID string) (*models.FolderContents, error) {
	path := fmt.Sprintf("/api/v2/folders/%s/contents/", url.PathEscape(folderID))
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var contents models.FolderContents
	if err := decodeResponse(resp, "list folder contents", nethttp.StatusOK, &contents); err != nil {
		return nil, err
	}
	return &contents, nil
}

// CreateFolder creates a folder under parentID ("" for a root folder).
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*models.FolderInfo, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v2/folders/", map[string]string{
		"name":     name,
		"parentId": parentID,
	})
	if err != nil {
		return nil, err
	}

	var folder models.FolderInfo
	if err := decodeResponse(resp, "create folder", nethttp.StatusCreated, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// AddItem commits an uploaded item's metadata to the platform.
func (c *Client) AddItem(ctx context.Context, req models.AddItemRequest) (*models.StoredItem, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v2/files/", req)
	if err != nil {
		return nil, err
	}

	var item models.StoredItem
	if err := decodeResponse(resp, "add item", nethttp.StatusCreated, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteFile soft-deletes a file (moves it to trash).
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	path := fmt.Sprintf("/api/v2/files/%s/", url.PathEscape(fileID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "delete file", nethttp.StatusNoContent, nil)
}

// DeleteFolder soft-deletes a folder and its contents.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	path := fmt.Sprintf("/api/v2/folders/%s/", url.PathEscape(folderID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "delete folder", nethttp.StatusNoContent, nil)
}

// page is the envelope the platform wraps list responses in.
type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// listAll walks a paginated endpoint, following next URLs until exhausted.
func listAll[T any](ctx context.Context, c *Client, operation, path string) ([]T, error) {
	var all []T

	nextURL := path
	for nextURL != "" {
		resp, err := c.doRequest(ctx, "GET", nextURL, nil)
		if err != nil {
			return nil, err
		}

		var result page[T]
		if err := decodeResponse(resp, operation, nethttp.StatusOK, &result); err != nil {
			return nil, err
		}

		all = append(all, result.Results...)

		if result.Next != nil && *result.Next != "" {
			nextURL = strings.TrimPrefix(*result.Next, c.baseURL)
		} else {
			nextURL = ""
		}
	}

	return all, nil
}

// --- Trash (/api/v2) ---

// ListTrash lists soft-deleted items.
func (c *Client) ListTrash(ctx context.Context) ([]models.TrashEntry, error) {
	return listAll[models.TrashEntry](ctx, c, "list trash", "/api/v2/trash/")
}

// RestoreItem returns a trashed item to its original folder.
func (c *Client) RestoreItem(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/api/v2/trash/%s/restore/", url.PathEscape(itemID))
	resp, err := c.doRequest(ctx, "POST", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "restore item", nethttp.StatusOK, nil)
}

// PurgeItem permanently removes a trashed item.
func (c *Client) PurgeItem(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/api/v2/trash/%s/", url.PathEscape(itemID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "purge item", nethttp.StatusNoContent, nil)
}

// --- Users (/api/v1) ---

// ListUsers lists all accounts (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	return listAll[models.User](ctx, c, "list users", "/api/v1/users/")
}

// CreateUser creates an account on behalf of an administrator.
func (c *Client) CreateUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/users/", req)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decodeResponse(resp, "create user", nethttp.StatusCreated, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/api/v1/users/%s/", url.PathEscape(userID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "delete user", nethttp.StatusNoContent, nil)
}

// --- Security groups (/api/v1) ---

// ListGroups lists security groups.
func (c *Client) ListGroups(ctx context.Context) ([]models.SecurityGroup, error) {
	return listAll[models.SecurityGroup](ctx, c, "list groups", "/api/v1/groups/")
}

// CreateGroup creates a security group.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*models.SecurityGroup, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/groups/", map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}

	var group models.SecurityGroup
	if err := decodeResponse(resp, "create group", nethttp.StatusCreated, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// AddGroupMember adds one user to a group.
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID string) (*models.SecurityGroup, error) {
	path := fmt.Sprintf("/api/v1/groups/%s/members/", url.PathEscape(groupID))
	resp, err := c.doRequest(ctx, "POST", path, map[string]string{
		"userId": userID,
	})
	if err != nil {
		return nil, err
	}

	var group models.SecurityGroup
	if err := decodeResponse(resp, "add group member", nethttp.StatusOK, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroupMembers replaces a group's membership.
func (c *Client) UpdateGroupMembers(ctx context.Context, groupID string, memberIDs []string) (*models.SecurityGroup, error) {
	path := fmt.Sprintf("/api/v1/groups/%s/members/", url.PathEscape(groupID))
	resp, err := c.doRequest(ctx, "PUT", path, map[string][]string{
		"memberIds": memberIDs,
	})
	if err != nil {
		return nil, err
	}

	var group models.SecurityGroup
	if err := decodeResponse(resp, "update group members", nethttp.StatusOK, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteGroup removes a security group. Permission assignments that
// reference the group are revoked server-side.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	path := fmt.Sprintf("/api/v1/groups/%s/", url.PathEscape(groupID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "delete group", nethttp.StatusNoContent, nil)
}

// --- Permissions (/api/v1) ---

// ListPermissions lists permission assignments on a file or folder.
func (c *Client) ListPermissions(ctx context.Context, scopeID string) ([]models.PermissionAssignment, error) {
	path := fmt.Sprintf("/api/v1/permissions/?scopeId=%s", url.QueryEscape(scopeID))
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var assignments []models.PermissionAssignment
	if err := decodeResponse(resp, "list permissions", nethttp.StatusOK, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GrantPermission grants a permission on a file/folder to a user or group.
func (c *Client) GrantPermission(ctx context.Context, req models.PermissionAssignment) (*models.PermissionAssignment, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/permissions/", req)
	if err != nil {
		return nil, err
	}

	var assignment models.PermissionAssignment
	if err := decodeResponse(resp, "grant permission", nethttp.StatusCreated, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// RevokePermission removes a permission assignment.
func (c *Client) RevokePermission(ctx context.Context, assignmentID string) error {
	path := fmt.Sprintf("/api/v1/permissions/%s/", url.PathEscape(assignmentID))
	resp, err := c.doRequest(ctx, "DELETE", path, nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, "revoke permission", nethttp.StatusNoContent, nil)
}

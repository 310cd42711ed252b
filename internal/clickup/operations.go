package clickup

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shineum/mailtask/internal/task"
)

// Workspaces lists the workspaces the token can see.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var resp teamsResponse
	if err := c.Request(ctx, http.MethodGet, "/team", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// Spaces lists the spaces of a workspace.
func (c *Client) Spaces(ctx context.Context, workspaceID string) ([]Space, error) {
	var resp spacesResponse
	query := url.Values{"archived": {"false"}}
	if err := c.Request(ctx, http.MethodGet, "/team/"+url.PathEscape(workspaceID)+"/space", nil, query, &resp); err != nil {
		return nil, err
	}
	return resp.Spaces, nil
}

// Lists lists the folderless lists of a space.
func (c *Client) Lists(ctx context.Context, spaceID string) ([]List, error) {
	var resp listsResponse
	query := url.Values{"archived": {"false"}}
	if err := c.Request(ctx, http.MethodGet, "/space/"+url.PathEscape(spaceID)+"/list", nil, query, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// Folders lists the folders of a space with their lists.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]Folder, error) {
	var resp foldersResponse
	query := url.Values{"archived": {"false"}}
	if err := c.Request(ctx, http.MethodGet, "/space/"+url.PathEscape(spaceID)+"/folder", nil, query, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// CustomFields lists the custom fields available on a list.
func (c *Client) CustomFields(ctx context.Context, listID string) ([]Field, error) {
	var resp fieldsResponse
	if err := c.Request(ctx, http.MethodGet, "/list/"+url.PathEscape(listID)+"/field", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Fields, nil
}

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, payload *task.Payload) (*Task, error) {
	var created Task
	if err := c.Request(ctx, http.MethodPost, "/list/"+url.PathEscape(listID)+"/task", payload, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ResolveListID walks workspace, space and list names down to a list id.
// Lists are looked up among the folderless lists first, then inside
// folders. A missing name yields *NotFoundError.
func (c *Client) ResolveListID(ctx context.Context, workspace, space, list string) (string, error) {
	workspaces, err := c.Workspaces(ctx)
	if err != nil {
		return "", err
	}
	ws, ok := findByName(workspaces, workspace, func(w Workspace) string { return w.Name })
	if !ok {
		return "", &NotFoundError{Kind: "workspace", Name: workspace}
	}

	spaces, err := c.Spaces(ctx, ws.ID)
	if err != nil {
		return "", err
	}
	sp, ok := findByName(spaces, space, func(s Space) string { return s.Name })
	if !ok {
		return "", &NotFoundError{Kind: "space", Name: space}
	}

	lists, err := c.Lists(ctx, sp.ID)
	if err != nil {
		return "", err
	}
	if l, ok := findByName(lists, list, listName); ok {
		return l.ID, nil
	}

	folders, err := c.Folders(ctx, sp.ID)
	if err != nil {
		return "", err
	}
	var folderLists []List
	for _, f := range folders {
		folderLists = append(folderLists, f.Lists...)
	}
	if l, ok := findByName(folderLists, list, listName); ok {
		return l.ID, nil
	}

	return "", &NotFoundError{Kind: "list", Name: list}
}

func listName(l List) string {
	return l.Name
}

// findByName prefers an exact match and falls back to a case-insensitive one.
func findByName[T any](items []T, name string, nameOf func(T) string) (T, bool) {
	for _, item := range items {
		if nameOf(item) == name {
			return item, true
		}
	}
	for _, item := range items {
		if strings.EqualFold(nameOf(item), name) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

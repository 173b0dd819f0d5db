package omnia

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alex-berlin-tv/rafo/internal/services"
)

// UploadFromURL creates a media item whose source the platform fetches from
// sourceURL. It returns the new item ID.
func (c *Client) UploadFromURL(ctx context.Context, sourceURL, filename, refnr string) (int, error) {
	params := url.Values{}
	params.Set("url", sourceURL)
	params.Set("useQueue", "1")
	params.Set("autoPublish", "1")
	if filename = strings.TrimSpace(filename); filename != "" {
		params.Set("filename", filename)
	}
	if refnr = strings.TrimSpace(refnr); refnr != "" {
		params.Set("refnr", refnr)
	}
	var result managementResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		operation: "fromurl",
		segments:  []string{"manage", c.stream, "fromurl"},
		params:    params,
	}, &result)
	if err != nil {
		return 0, err
	}
	if result.ItemUpdate == nil || result.ItemUpdate.GeneratedID <= 0 {
		return 0, services.Wrap(services.ErrRemoteApplication, "omnia", "fromurl", "response carries no generated item id", nil)
	}
	return int(result.ItemUpdate.GeneratedID), nil
}

// ItemByID reads a media item including its restriction details.
func (c *Client) ItemByID(ctx context.Context, id int) (Item, error) {
	params := url.Values{}
	params.Set("addRestrictionDetails", "1")
	var result mediaResult
	err := c.do(ctx, request{
		method:    http.MethodGet,
		operation: "byid",
		segments:  c.mediaPath("byid", strconv.Itoa(id)),
		params:    params,
	}, &result)
	if err != nil {
		return Item{}, err
	}
	return result.item(), nil
}

// ItemsByRefnr lists the media items carrying a reference number.
func (c *Client) ItemsByRefnr(ctx context.Context, refnr string) ([]Item, error) {
	var results []mediaResult
	err := c.do(ctx, request{
		method:    http.MethodGet,
		operation: "byrefnr",
		segments:  c.mediaPath("byrefnr", refnr),
	}, &results)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, r.item())
	}
	return items, nil
}

// UpdateMetadata writes the general attributes of an item.
func (c *Client) UpdateMetadata(ctx context.Context, id int, meta ItemMetadata) error {
	params := url.Values{}
	params.Set("title", meta.Title)
	params.Set("description", meta.Description)
	if meta.Refnr != "" {
		params.Set("refnr", meta.Refnr)
	}
	if !meta.ReleaseDate.IsZero() {
		params.Set("releasedate", unixString(meta.ReleaseDate))
	}
	return c.do(ctx, request{
		method:    http.MethodPut,
		operation: "update",
		segments:  c.managePath(id, "update"),
		params:    params,
	}, nil)
}

// UpdateRestrictions writes the publication window of an item.
func (c *Client) UpdateRestrictions(ctx context.Context, id int, r Restrictions) error {
	params := url.Values{}
	if !r.ValidFrom.IsZero() {
		params.Set("validFrom", unixString(r.ValidFrom))
	}
	if !r.ValidUntil.IsZero() {
		params.Set("validUntil", unixString(r.ValidUntil))
	}
	if len(params) == 0 {
		return nil
	}
	return c.do(ctx, request{
		method:    http.MethodPut,
		operation: "updaterestrictions",
		segments:  c.managePath(id, "updaterestrictions"),
		params:    params,
	}, nil)
}

// SetCoverFromURL uploads the image at imageURL as the item cover.
func (c *Client) SetCoverFromURL(ctx context.Context, id int, imageURL string) error {
	params := url.Values{}
	params.Set("url", imageURL)
	return c.do(ctx, request{
		method:    http.MethodPost,
		operation: "cover",
		segments:  c.managePath(id, "cover"),
		params:    params,
	}, nil)
}

// ConnectShow links an item to a show.
func (c *Client) ConnectShow(ctx context.Context, id, showID int) error {
	if showID <= 0 {
		return services.Wrap(services.ErrRemoteApplication, "omnia", "connectshow", fmt.Sprintf("invalid show id %d", showID), nil)
	}
	return c.do(ctx, request{
		method:    http.MethodPut,
		operation: "connectshow",
		segments:  c.managePath(id, "connectshow", strconv.Itoa(showID)),
		params:    url.Values{},
	}, nil)
}

// ShowByID reads a show container.
func (c *Client) ShowByID(ctx context.Context, showID int) (Show, error) {
	var result mediaResult
	err := c.do(ctx, request{
		method:    http.MethodGet,
		operation: "byid",
		segments:  []string{"shows", "byid", strconv.Itoa(showID)},
	}, &result)
	if err != nil {
		return Show{}, err
	}
	return Show{
		ID:          int(result.General.ID),
		Title:       result.General.Title,
		Description: result.General.Description,
	}, nil
}

package omnia

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// flexInt decodes integers the API sometimes sends as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, err := n.Int64(); err == nil {
		*f = flexInt(v)
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// ItemUpdate names the item created by a management call.
type ItemUpdate struct {
	StreamType   string  `json:"streamtype"`
	GeneratedID  flexInt `json:"generatedID"`
	GeneratedGID flexInt `json:"generatedGID"`
}

type managementResult struct {
	Message     string      `json:"message"`
	ItemUpdate  *ItemUpdate `json:"itemupdate"`
	OperationID flexInt     `json:"operationid"`
}

type mediaGeneral struct {
	ID          flexInt `json:"ID"`
	GID         flexInt `json:"GID"`
	Hash        string  `json:"hash"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Refnr       string  `json:"refnr"`
	ReleaseDate flexInt `json:"releasedate"`
	Created     flexInt `json:"created"`
	Runtime     string  `json:"runtime"`
}

type restrictionDetails struct {
	ValidFrom  flexInt `json:"validFrom"`
	ValidUntil flexInt `json:"validUntil"`
}

type mediaResult struct {
	General      mediaGeneral        `json:"general"`
	Restrictions *restrictionDetails `json:"restrictionsdetails"`
}

// Item is a media item as read back from the platform. Zero times mean the
// field is unset.
type Item struct {
	ID          int
	Title       string
	Description string
	Refnr       string
	ReleaseDate time.Time
	ValidFrom   time.Time
	ValidUntil  time.Time
}

func (r mediaResult) item() Item {
	it := Item{
		ID:          int(r.General.ID),
		Title:       r.General.Title,
		Description: r.General.Description,
		Refnr:       r.General.Refnr,
		ReleaseDate: unix(r.General.ReleaseDate),
	}
	if r.Restrictions != nil {
		it.ValidFrom = unix(r.Restrictions.ValidFrom)
		it.ValidUntil = unix(r.Restrictions.ValidUntil)
	}
	return it
}

// Show is a show (series) container on the platform.
type Show struct {
	ID          int
	Title       string
	Description string
}

// ItemMetadata holds the general attributes written by the export.
type ItemMetadata struct {
	Title       string
	Description string
	Refnr       string
	ReleaseDate time.Time
}

// Restrictions are the publication window of an item. A zero ValidUntil
// leaves the item available indefinitely.
type Restrictions struct {
	ValidFrom  time.Time
	ValidUntil time.Time
}

func unix(v flexInt) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}

func unixString(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

package models

import "gorm.io/gorm"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Page is the offset pagination used by every list endpoint.
type Page struct {
	Page  int `form:"page" json:"page"`
	Limit int `form:"limit" json:"limit"`
}

// Normalize clamps page to >= 1 and limit to [1, 100], defaulting to 20.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	n := p.Normalize()
	return db.Offset(n.Offset()).Limit(n.Limit)
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPageInfo(p Page, total int64) PageInfo {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return PageInfo{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}

package nav

import "finitefield.org/cinema-web/internal/query"

// PagerWindow is the most page-number buttons the pager shows at once.
const PagerWindow = 10

// PageLink is one numbered pager button.
type PageLink struct {
	Number  int
	Href    string
	Current bool
}

// Pager is the view model for the pagination control.
type Pager struct {
	Page         int
	TotalPages   int
	Pages        []PageLink
	Prev         int
	Next         int
	PrevHref     string
	NextHref     string
	PrevDisabled bool
	NextDisabled bool
}

// BuildPager lays out a window of at most PagerWindow buttons around the current
// page. Previous is disabled on page 1; next on the last page or when there are
// no pages at all.
func BuildPager(path string, s query.State, totalPages int) Pager {
	if totalPages > query.MaxPage {
		totalPages = query.MaxPage
	}
	if totalPages < 0 {
		totalPages = 0
	}
	p := Pager{Page: s.Page, TotalPages: totalPages}
	p.PrevDisabled = s.Page <= 1
	p.NextDisabled = totalPages == 0 || s.Page >= totalPages
	if !p.PrevDisabled {
		p.Prev = s.Page - 1
		p.PrevHref = s.GotoPage(p.Prev).Href(path)
	}
	if !p.NextDisabled {
		p.Next = s.Page + 1
		p.NextHref = s.GotoPage(p.Next).Href(path)
	}
	if totalPages == 0 {
		return p
	}
	start := max(1, s.Page-PagerWindow/2+1)
	end := min(totalPages, start+PagerWindow-1)
	start = max(1, end-PagerWindow+1)
	for n := start; n <= end; n++ {
		p.Pages = append(p.Pages, PageLink{
			Number:  n,
			Href:    s.GotoPage(n).Href(path),
			Current: n == s.Page,
		})
	}
	return p
}

// Visible reports whether the pager is worth rendering.
func (p Pager) Visible() bool { return p.TotalPages > 1 }

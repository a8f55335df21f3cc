package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finitefield.org/cinema-web/internal/query"
	"finitefield.org/cinema-web/internal/tmdb"
)

func intp(v int) *int { return &v }

func TestBuildActive(t *testing.T) {
	items := Build("/movie/42")
	require.Len(t, items, len(Main))
	assert.True(t, items[0].Active)
	assert.False(t, items[1].Active)

	items = Build("/pages/attribution")
	assert.False(t, items[0].Active)
	assert.True(t, items[2].Active)
}

func TestFiltersActiveOnlyWithoutGenreOrSearch(t *testing.T) {
	s := query.State{Filter: query.FilterIMDb, Page: 3}
	items := Filters("/", s)
	require.Len(t, items, 3)
	assert.Equal(t, "nav.filter.all", items[0].LabelKey)
	assert.Equal(t, "/", items[0].Href)
	assert.Equal(t, "/?filter=year", items[1].Href)
	assert.True(t, items[2].Active)

	s.GenreID = intp(28)
	for _, it := range Filters("/", s) {
		assert.False(t, it.Active)
	}
	s = query.State{Filter: query.FilterAll, Page: 1, Search: "batman"}
	for _, it := range Filters("/", s) {
		assert.False(t, it.Active)
	}
}

func TestGenresAllFirst(t *testing.T) {
	s := query.State{Filter: query.FilterAll, Page: 4, GenreID: intp(35)}
	items := Genres("/", s, []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}, "All genres")
	require.Len(t, items, 3)
	assert.Nil(t, items[0].ID)
	assert.Equal(t, "All genres", items[0].Name)
	assert.Equal(t, "/", items[0].Href)
	assert.False(t, items[0].Active)
	assert.Equal(t, "/?genre=28", items[1].Href, "selecting a genre resets the page")
	assert.Equal(t, "28", items[1].Value)
	assert.Empty(t, items[0].Value)
	assert.True(t, items[2].Active)
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("Heat")
	require.Len(t, crumbs, 2)
	assert.Equal(t, "nav.home", crumbs[0].LabelKey)
	assert.False(t, crumbs[0].Active)
	assert.Equal(t, "Heat", crumbs[1].Label)
	assert.True(t, crumbs[1].Active)

	assert.True(t, Breadcrumbs("")[0].Active)
}

func numbers(p Pager) []int {
	out := make([]int, 0, len(p.Pages))
	for _, l := range p.Pages {
		out = append(out, l.Number)
	}
	return out
}

func TestPagerWindow(t *testing.T) {
	s := query.State{Filter: query.FilterAll, Page: 1}
	p := BuildPager("/", s, 42)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, numbers(p))
	assert.True(t, p.PrevDisabled)
	assert.Empty(t, p.PrevHref)
	assert.Equal(t, "/?page=2", p.NextHref)
	assert.True(t, p.Pages[0].Current)

	s.Page = 20
	p = BuildPager("/", s, 42)
	assert.Equal(t, []int{16, 17, 18, 19, 20, 21, 22, 23, 24, 25}, numbers(p))
	assert.False(t, p.PrevDisabled)
	assert.False(t, p.NextDisabled)

	s.Page = 42
	p = BuildPager("/", s, 42)
	assert.Equal(t, []int{33, 34, 35, 36, 37, 38, 39, 40, 41, 42}, numbers(p))
	assert.True(t, p.NextDisabled)
	assert.Empty(t, p.NextHref)
}

func TestPagerSmallAndEmpty(t *testing.T) {
	s := query.State{Filter: query.FilterYear, Page: 2}
	p := BuildPager("/", s, 3)
	assert.Equal(t, []int{1, 2, 3}, numbers(p))
	assert.Equal(t, "/?filter=year", p.PrevHref)
	assert.Equal(t, "/?filter=year&page=3", p.NextHref)
	assert.Equal(t, 1, p.Prev)
	assert.Equal(t, 3, p.Next)
	assert.True(t, p.Visible())

	s.Page = 1
	p = BuildPager("/", s, 0)
	assert.Empty(t, p.Pages)
	assert.True(t, p.PrevDisabled)
	assert.True(t, p.NextDisabled)
	assert.False(t, p.Visible())
}

func TestPagerCapsTotal(t *testing.T) {
	s := query.State{Filter: query.FilterAll, Page: 500}
	p := BuildPager("/", s, 38000)
	assert.Equal(t, query.MaxPage, p.TotalPages)
	assert.Len(t, p.Pages, PagerWindow)
	assert.Equal(t, 500, p.Pages[len(p.Pages)-1].Number)
	assert.True(t, p.NextDisabled)
}

package goodreads

import (
	"fmt"
	"strings"
)

type fixtureRow struct {
	title   string
	author  string
	cover   string
	stars   int
	started string
	read    string
}

const fixtureStar = `<span class="staticStar p10" size="15x15"></span>`
const fixtureEmptyStar = `<span class="staticStar p0" size="15x15"></span>`

func fixtureDate(field, value string) string {
	if value == "" {
		return `<span class="greyText">not set</span>`
	}
	return fmt.Sprintf(`<span class="%s_value">%s</span>`, field, value)
}

func (r fixtureRow) html() string {
	stars := strings.Repeat(fixtureStar, r.stars)
	if r.stars < MaxRating {
		stars += strings.Repeat(fixtureEmptyStar, MaxRating-r.stars)
	}
	return fmt.Sprintf(`<tr class="bookalike review">
	<td class="field cover"><div class="value"><a href="/book/show/1"><img alt="%[1]s" src="%[3]s"></a></div></td>
	<td class="field title"><label>title</label><div class="value"><a title="%[1]s" href="/book/show/1">
		%[1]s
	</a></div></td>
	<td class="field author"><label>author</label><div class="value"><a href="/author/show/1">%[2]s</a>*</div></td>
	<td class="field rating"><label>rating</label><div class="value"><div class="stars">%[4]s</div></div></td>
	<td class="field date_started"><label>date started</label><div class="value"><div class="date_row">%[5]s</div></div></td>
	<td class="field date_read"><label>date read</label><div class="value"><div class="date_row">%[6]s</div></div></td>
</tr>`,
		r.title, r.author, r.cover, stars,
		fixtureDate("date_started", r.started),
		fixtureDate("date_read", r.read),
	)
}

// fixtureShelf renders a shelf page, nextHref is omitted when empty.
func fixtureShelf(nextHref string, rows ...fixtureRow) string {
	var body strings.Builder
	for _, r := range rows {
		body.WriteString(r.html())
		body.WriteString("\n")
	}

	pagination := `<span class="next_page disabled">next »</span>`
	if nextHref != "" {
		pagination = fmt.Sprintf(`<a class="next_page" href="%s">next »</a>`, nextHref)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
<table id="books" class="table stacked">
<thead><tr id="booksHeader"><th>cover</th><th>title</th><th>author</th><th>rating</th><th>date started</th><th>date read</th></tr></thead>
<tbody id="booksBody">
%s</tbody>
</table>
<div id="reviewPagination">%s</div>
</body>
</html>`, body.String(), pagination)
}

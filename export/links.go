package export

import (
	"net/url"
	"time"

	"github.com/brunobiangulo/coursewizard/course"
)

// Link holds the "add to calendar" deep links of one lesson.
type Link struct {
	Lesson  int    `json:"lesson"` // 1-based position in the calendar
	Date    string `json:"date"`
	Title   string `json:"title"`
	Google  string `json:"google"`
	Outlook string `json:"outlook"`
}

// CalendarLinks builds Google Calendar and Outlook links for every lesson
// whose date and times parse. A nil loc means time.Local.
func CalendarLinks(d course.Data, loc *time.Location) []Link {
	if loc == nil {
		loc = time.Local
	}
	links := make([]Link, 0, len(d.Calendar.Lessons))
	for i, l := range d.Calendar.Lessons {
		start, end, err := lessonSpan(l, loc)
		if err != nil {
			continue
		}
		title := lessonTitle(d, l)
		place := lessonPlace(d, l)
		details := lessonDetails(d, l)

		g := url.Values{}
		g.Set("action", "TEMPLATE")
		g.Set("text", title)
		g.Set("dates", start.Format("20060102T150405")+"/"+end.Format("20060102T150405"))
		g.Set("ctz", loc.String())
		g.Set("location", place)
		g.Set("details", details)

		o := url.Values{}
		o.Set("path", "/calendar/action/compose")
		o.Set("rru", "addevent")
		o.Set("subject", title)
		o.Set("startdt", start.Format(time.RFC3339))
		o.Set("enddt", end.Format(time.RFC3339))
		o.Set("location", place)
		o.Set("body", details)

		links = append(links, Link{
			Lesson:  i + 1,
			Date:    l.Date,
			Title:   title,
			Google:  "https://calendar.google.com/calendar/render?" + g.Encode(),
			Outlook: "https://outlook.live.com/calendar/0/deeplink/compose?" + o.Encode(),
		})
	}
	return links
}

package calendar

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// slotHeightPx is the rendered height of one week/day slot. Placement
// minutes are scaled by slotHeightPx / SlotMinutes.
const slotHeightPx = 48

// htmlWriter remembers the first write error so the render functions can
// stay linear.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func esc(s string) string { return templ.EscapeString(s) }

// CalendarPage renders the full console page for v.
func CalendarPage(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.printf(`<title>%s - Calendar</title><style>%s</style></head><body>`, esc(v.Title), pageCSS)
		if h.err != nil {
			return h.err
		}
		if err := CalendarFragment(v).Render(ctx, w); err != nil {
			return err
		}
		h.printf(`<script>%s</script></body></html>`, pageJS)
		return h.err
	})
}

// CalendarFragment renders the toolbar and grid without the page shell.
func CalendarFragment(v View) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<div id="calendar" data-view="%s">`, esc(string(v.State.ViewMode)))
		renderToolbar(h, v)
		if v.State.ViewMode == ViewMonth {
			renderMonth(h, v)
		} else {
			renderTimed(h, v)
		}
		h.printf(`</div>`)
		return h.err
	})
}

func renderToolbar(h *htmlWriter, v View) {
	h.printf(`<header class="toolbar">`)
	h.printf(`<button data-nav="prev">&lsaquo;</button><button data-nav="today">Today</button><button data-nav="next">&rsaquo;</button>`)
	h.printf(`<h1>%s</h1>`, esc(v.Title))
	for _, m := range []ViewMode{ViewMonth, ViewWeek, ViewDay} {
		active := ""
		if m == v.State.ViewMode {
			active = ` class="active"`
		}
		h.printf(`<button data-mode="%s"%s>%s</button>`, m, active, esc(string(m)))
	}
	h.printf(`<input type="search" name="filter" placeholder="Filter" value="%s">`, esc(v.State.FilterTerm))
	h.printf(`</header>`)
}

func renderMonth(h *htmlWriter, v View) {
	h.printf(`<table class="month"><thead><tr>`)
	if len(v.Weeks) > 0 {
		for _, d := range v.Weeks[0] {
			h.printf(`<th>%s</th>`, d.Date.Format("Mon"))
		}
	}
	h.printf(`</tr></thead><tbody>`)
	for _, week := range v.Weeks {
		h.printf(`<tr>`)
		for _, d := range week {
			h.printf(`<td class="%s" data-day="%s"><span class="num">%d</span>`, dayClass(d), d.Key, d.Date.Day())
			cell := v.Cells[d.Key]
			for _, e := range cell.Shown {
				renderChip(h, e, "")
			}
			if cell.Overflow > 0 {
				h.printf(`<span class="more">+%d more</span>`, cell.Overflow)
			}
			h.printf(`</td>`)
		}
		h.printf(`</tr>`)
	}
	h.printf(`</tbody></table>`)
}

func renderTimed(h *htmlWriter, v View) {
	slotMinutes := v.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	height := len(v.Slots) * slotHeightPx
	visibleMinutes := (v.EndHour - v.StartHour) * 60

	h.printf(`<div class="timed"><div class="gutter">`)
	for _, s := range v.Slots {
		h.printf(`<div class="slot" style="height:%dpx">%s</div>`, slotHeightPx, s.Label)
	}
	h.printf(`</div>`)

	for _, d := range v.Days {
		h.printf(`<div class="column %s" data-day="%s"><div class="colhead">%s</div>`,
			dayClass(d), d.Key, d.Date.Format("Mon 2"))
		h.printf(`<div class="body" style="height:%dpx">`, height)
		rangeStart := StartOfDay(d.Date).Add(time.Duration(v.StartHour) * time.Hour)
		for _, p := range v.Timed[d.Key] {
			// Clip to the visible hour range. Offsets are elapsed minutes
			// from rangeStart, matching the engine; TopOffsetMinutes is
			// clamped at zero so the end is measured independently.
			endOffset := minutesBetween(rangeStart, p.VisibleEnd)
			if p.TopOffsetMinutes >= visibleMinutes || endOffset <= 0 {
				continue
			}
			if endOffset > visibleMinutes {
				endOffset = visibleMinutes
			}
			top := p.TopOffsetMinutes * slotHeightPx / slotMinutes
			px := (endOffset - p.TopOffsetMinutes) * slotHeightPx / slotMinutes
			if px < 4 {
				px = 4
			}
			renderChip(h, p.Event, fmt.Sprintf("top:%dpx;height:%dpx", top, px))
		}
		h.printf(`</div></div>`)
	}
	h.printf(`</div>`)
}

func renderChip(h *htmlWriter, e Event, style string) {
	color := ""
	if e.ColorTag != nil {
		color = *e.ColorTag
	}
	label := e.Title
	if !IsAllDay(e) {
		label = e.Start.Format("15:04") + " " + e.Title
	}
	h.printf(`<div class="event" draggable="true" data-id="%s" data-color="%s" style="%s" title="%s">%s</div>`,
		esc(e.ID), esc(color), esc(style), esc(e.Title), esc(label))
}

func dayClass(d Day) string {
	c := "day"
	if !d.InMonth {
		c += " outside"
	}
	if d.IsToday {
		c += " today"
	}
	return c
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:1rem}
.toolbar{display:flex;gap:.5rem;align-items:center}.toolbar h1{font-size:1.2rem;margin:0 1rem}
.active{font-weight:bold}table.month{width:100%;border-collapse:collapse;table-layout:fixed}
td.day{vertical-align:top;height:6rem;border:1px solid #ddd;padding:2px}
.outside{background:#f6f6f6;color:#999}.today .num{background:#1a73e8;color:#fff;border-radius:50%;padding:0 4px}
.event{font-size:.8rem;background:#e8f0fe;border-radius:3px;margin:1px 0;padding:0 3px;overflow:hidden;cursor:grab}
.more{font-size:.75rem;color:#555}.timed{display:flex}.column{flex:1;border-left:1px solid #ddd}
.column .body{position:relative}.column .event{position:absolute;left:2px;right:2px}
.slot{border-top:1px solid #eee;font-size:.7rem;color:#777;width:3rem}`

const pageJS = `(function(){
var api='/api/v1/calendar';
function send(method,url,body){return fetch(url,{method:method,headers:{'Content-Type':'application/json'},body:body?JSON.stringify(body):null,credentials:'same-origin'}).then(function(r){if(!r.ok){return r.json().then(function(e){alert(e.message||r.statusText)})}location.reload()})}
document.querySelectorAll('[data-nav]').forEach(function(b){b.onclick=function(){send('POST',api+'/navigate',{direction:b.dataset.nav})}});
document.querySelectorAll('[data-mode]').forEach(function(b){b.onclick=function(){send('PUT',api+'/view',{view_mode:b.dataset.mode})}});
var f=document.querySelector('input[name=filter]');if(f){f.onchange=function(){send('PUT',api+'/view',{filter_term:f.value})}}
var dragged=null;
document.querySelectorAll('.event').forEach(function(e){e.ondragstart=function(){dragged=e.dataset.id}});
document.querySelectorAll('[data-day]').forEach(function(d){d.ondragover=function(ev){ev.preventDefault()};d.ondrop=function(ev){ev.preventDefault();if(dragged){send('POST',api+'/events/'+dragged+'/move',{target_day:d.dataset.day})}}});
})();`

package main

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"eventmeet/internal/usecase"
)

const timeLayout = "2006-01-02 15:04"

// plainText strips all markup from cached HTML for terminal output.
var plainText = bluemonday.StrictPolicy()

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printEvents(w io.Writer, events []usecase.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTART\tTITLE\tPLACE\tSEATS")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.StartedAt.Local().Format(timeLayout), e.Title, placeOf(e), seats(e))
	}
	tw.Flush()
}

func printEventDetail(w io.Writer, e *usecase.Event) {
	fmt.Fprintf(w, "%s\n", e.Title)
	fmt.Fprintf(w, "  ID:     %d\n", e.ID)
	fmt.Fprintf(w, "  URL:    %s\n", e.URL)
	fmt.Fprintf(w, "  Start:  %s\n", e.StartedAt.Local().Format(timeLayout))
	if e.EndedAt != nil {
		fmt.Fprintf(w, "  End:    %s\n", e.EndedAt.Local().Format(timeLayout))
	}
	fmt.Fprintf(w, "  Where:  %s\n", placeOf(*e))
	fmt.Fprintf(w, "  Seats:  %s (%d waiting)\n", seats(*e), e.Waiting)
	if desc := describe(e.Description); desc != "" {
		fmt.Fprintf(w, "\n%s\n", desc)
	}
}

func placeOf(e usecase.Event) string {
	switch {
	case e.Online:
		return "online"
	case e.Place != "":
		return e.Place
	default:
		return e.Address
	}
}

func seats(e usecase.Event) string {
	switch {
	case e.Unlimited:
		return strconv.Itoa(e.Accepted) + "/-"
	case e.Full:
		return fmt.Sprintf("%d/%d full", e.Accepted, e.Limit)
	default:
		return fmt.Sprintf("%d/%d", e.Accepted, e.Limit)
	}
}

// describe renders an HTML description as plain text.
func describe(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

func printUsers(w io.Writer, users []usecase.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNICKNAME\tNAME\tPROFILE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Nickname, u.DisplayName, u.ProfileURL)
	}
	tw.Flush()
}

func printNotes(w io.Writer, notes []usecase.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No meetings recorded.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tEVENT\tUSER\tNICKNAME\tTAGS\tNOTES\tRECORDED")
	for _, n := range notes {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			n.ID, n.EventID, n.MetUserID, n.Nickname,
			strings.Join(n.Tags, ","), oneLine(n.Notes), n.CreatedAt.Local().Format(timeLayout))
	}
	tw.Flush()
}

func printPeople(w io.Writer, people []usecase.PersonMet) {
	if len(people) == 0 {
		fmt.Fprintln(w, "No one met yet.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "USER\tNICKNAME\tMET\tLAST MET")
	for _, p := range people {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.MetUserID, p.Nickname, p.MeetCount, p.LastMetAt.Local().Format(timeLayout))
	}
	tw.Flush()
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", what, s)
	}
	return id, nil
}

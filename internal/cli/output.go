package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/marketplace-admin/console/internal/core/domain"
)

type tabWriter = *tabwriter.Writer

// render writes v as json or yaml, and otherwise as the caller's table.
func render(w io.Writer, format string, v any, table func(tabWriter)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so the json tags name the keys.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func userTable(users []domain.User) func(tabWriter) {
	return func(tw tabWriter) {
		fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tEMAIL\tTYPE\tSTATUS\tJOINED")
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.FullName(), u.Email, u.UserType, status(u.IsActive), date(u.DateJoined))
		}
	}
}

func userDetail(u *domain.User) func(tabWriter) {
	return func(tw tabWriter) {
		rows := [][2]string{
			{"ID", fmt.Sprint(u.ID)},
			{"Username", u.Username},
			{"Name", u.FullName()},
			{"Email", u.Email},
			{"Type", string(u.UserType)},
			{"Status", status(u.IsActive)},
			{"Joined", date(u.DateJoined)},
			{"Last login", date(u.LastLogin)},
		}
		for _, r := range rows {
			fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
		}
	}
}

func statsTable(label string, st domain.EntityStats) func(tabWriter) {
	return func(tw tabWriter) {
		fmt.Fprintf(tw, "Scope:\t%s\n", label)
		fmt.Fprintf(tw, "Total:\t%d\n", st.Total)
		fmt.Fprintf(tw, "Active:\t%d\n", st.Active)
		fmt.Fprintf(tw, "New today:\t%d\n", st.NewToday)
		fmt.Fprintf(tw, "Churn rate:\t%s\n", st.ChurnRate)
		if st.Derived {
			fmt.Fprintf(tw, "Source:\t%s\n", "derived from list")
		}
	}
}

func status(active bool) string {
	if active {
		return "active"
	}
	return "suspended"
}

func date(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}

// prompt reads one line from r after printing label to w.
func prompt(r io.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

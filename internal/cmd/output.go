package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/psichat/internal/authz"
	"github.com/felixgeelhaar/psichat/internal/health"
	"github.com/felixgeelhaar/psichat/internal/metrics"
	"github.com/felixgeelhaar/psichat/internal/platform"
)

// Result types give each command a text rendering while JSON and YAML
// marshal the same value.

type messageOutput struct {
	Message string `json:"message" yaml:"message"`
}

func (m messageOutput) String() string { return m.Message }

type userOutput platform.User

func (u userOutput) String() string {
	user := platform.User(u)
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", user.DisplayName(), user.Email)
	fmt.Fprintf(&b, "  id:   %d\n", user.ID)
	fmt.Fprintf(&b, "  role: %s", user.Role)
	if user.Institution != "" {
		fmt.Fprintf(&b, "\n  institution: %s", user.Institution)
	}
	if len(user.Permissions) > 0 {
		fmt.Fprintf(&b, "\n  permissions: %s", strings.Join(user.Permissions, ", "))
	}
	return b.String()
}

type statusOutput struct {
	Phase         string         `json:"phase" yaml:"phase"`
	Authenticated bool           `json:"authenticated" yaml:"authenticated"`
	User          *platform.User `json:"user,omitempty" yaml:"user,omitempty"`
	Token         string         `json:"token_fingerprint,omitempty" yaml:"token_fingerprint,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	APIBaseURL    string         `json:"api_base_url" yaml:"api_base_url"`
}

func (s statusOutput) String() string {
	if !s.Authenticated {
		return fmt.Sprintf("Not logged in (%s)", s.APIBaseURL)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Logged in as %s <%s> (%s)\n", s.User.DisplayName(), s.User.Email, s.User.Role)
	fmt.Fprintf(&b, "  backend: %s", s.APIBaseURL)
	if s.Token != "" {
		fmt.Fprintf(&b, "\n  token:   %s", s.Token)
	}
	if s.ExpiresAt != nil {
		fmt.Fprintf(&b, "\n  expires: %s", s.ExpiresAt.Format(time.RFC3339))
	}
	return b.String()
}

// documentOutput renders loosely shaped payloads as YAML in text mode.
type documentOutput map[string]any

func (d documentOutput) String() string {
	if len(d) == 0 {
		return "(empty)"
	}
	data, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(d))
	}
	return strings.TrimRight(string(data), "\n")
}

type documentsOutput []platform.Document

func (d documentsOutput) String() string {
	if len(d) == 0 {
		return "(empty)"
	}
	parts := make([]string, 0, len(d))
	for _, doc := range d {
		parts = append(parts, documentOutput(doc).String())
	}
	return strings.Join(parts, "\n---\n")
}

type replyOutput platform.ChatResponse

func (r replyOutput) String() string {
	var b strings.Builder
	b.WriteString(r.Reply)
	if r.Meta.DetectedEmotion != "" {
		fmt.Fprintf(&b, "\n\nemotion: %s (%.0f%%)", r.Meta.DetectedEmotion, r.Meta.EmotionScore)
	}
	if r.Meta.DetectedStyle != "" {
		fmt.Fprintf(&b, "  style: %s", r.Meta.DetectedStyle)
	}
	if r.Meta.Alert {
		fmt.Fprintf(&b, "\nA tutor has been notified: %s", r.Meta.AlertReason)
	}
	return b.String()
}

type historyOutput []platform.HistoryMessage

func (h historyOutput) Header() []string { return []string{"ID", "FROM", "SENT", "TEXT"} }

func (h historyOutput) Rows() [][]string {
	rows := make([][]string, 0, len(h))
	for _, m := range h {
		rows = append(rows, []string{strconv.Itoa(m.ID), m.Sender, formatTime(m.CreatedAt), truncate(m.Text, 60)})
	}
	return rows
}

type directOutput []platform.DirectMessage

func (d directOutput) Header() []string { return []string{"FROM", "TO", "SENT", "CONTENT"} }

func (d directOutput) Rows() [][]string {
	rows := make([][]string, 0, len(d))
	for _, m := range d {
		rows = append(rows, []string{strconv.Itoa(m.SenderID), strconv.Itoa(m.ReceiverID), formatTime(m.Timestamp), truncate(m.Content, 60)})
	}
	return rows
}

type alertsOutput []platform.Alert

func (a alertsOutput) Header() []string {
	return []string{"ID", "STUDENT", "EMOTION", "URGENCY", "REVIEWED", "LAST MESSAGE"}
}

func (a alertsOutput) Rows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, al := range a {
		rows = append(rows, []string{
			al.ID,
			al.Student.Name,
			fmt.Sprintf("%s %.0f", al.Emotion.Name, al.Emotion.Score),
			al.Urgency,
			strconv.FormatBool(al.Reviewed),
			truncate(al.LastMessage, 40),
		})
	}
	return rows
}

type studentsOutput []platform.User

func (s studentsOutput) Header() []string { return []string{"ID", "NAME", "EMAIL", "STATUS"} }

func (s studentsOutput) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, u := range s {
		rows = append(rows, []string{strconv.Itoa(u.ID), u.DisplayName(), u.Email, u.Status})
	}
	return rows
}

type tutorNotificationsOutput []platform.TutorNotification

func (n tutorNotificationsOutput) Header() []string {
	return []string{"ID", "READ", "TITLE", "MESSAGE"}
}

func (n tutorNotificationsOutput) Rows() [][]string {
	rows := make([][]string, 0, len(n))
	for _, tn := range n {
		rows = append(rows, []string{strconv.Itoa(tn.ID), strconv.FormatBool(tn.Read), tn.Title, truncate(tn.Message, 50)})
	}
	return rows
}

type conversationOutput platform.StudentConversation

func (c conversationOutput) Header() []string { return []string{"FROM", "EMOTION", "SENT", "TEXT"} }

func (c conversationOutput) Rows() [][]string {
	rows := make([][]string, 0, len(c.Conversation))
	for _, m := range c.Conversation {
		rows = append(rows, []string{m.Sender, m.Emotion, m.Timestamp, truncate(m.Text, 60)})
	}
	return rows
}

type navigationOutput struct {
	Requested string            `json:"requested" yaml:"requested"`
	Location  string            `json:"location" yaml:"location"`
	Outcome   string            `json:"outcome" yaml:"outcome"`
	View      string            `json:"view,omitempty" yaml:"view,omitempty"`
	Params    map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Hops      []string          `json:"hops" yaml:"hops"`
}

func newNavigationOutput(nav authz.Navigation) navigationOutput {
	out := navigationOutput{
		Requested: nav.Requested,
		Location:  nav.Location,
		Outcome:   string(nav.Decision.Outcome),
		Params:    nav.Params,
		Hops:      nav.Hops,
	}
	if nav.Rendered() {
		out.View = nav.Route.View
	}
	return out
}

func (n navigationOutput) String() string {
	switch {
	case n.View != "" && n.Location == n.Requested:
		return fmt.Sprintf("%s → %s", n.Location, n.View)
	case n.View != "":
		return fmt.Sprintf("%s redirected to %s → %s", n.Requested, n.Location, n.View)
	default:
		return fmt.Sprintf("%s: %s", n.Location, n.Outcome)
	}
}

type diagOutput struct {
	Environment string                    `json:"environment" yaml:"environment"`
	APIBaseURL  string                    `json:"api_base_url" yaml:"api_base_url"`
	Timeout     string                    `json:"timeout" yaml:"timeout"`
	LogLevel    string                    `json:"log_level" yaml:"log_level"`
	TokenPath   string                    `json:"token_path" yaml:"token_path"`
	Phase       string                    `json:"session_phase" yaml:"session_phase"`
	Location    string                    `json:"location" yaml:"location"`
	Checks      map[string]*health.Result `json:"checks,omitempty" yaml:"checks,omitempty"`
	Overall     string                    `json:"overall,omitempty" yaml:"overall,omitempty"`
	Metrics     []metrics.Sample          `json:"metrics" yaml:"metrics"`
}

func (d diagOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "environment:   %s\n", d.Environment)
	fmt.Fprintf(&b, "api base url:  %s\n", d.APIBaseURL)
	fmt.Fprintf(&b, "timeout:       %s\n", d.Timeout)
	fmt.Fprintf(&b, "log level:     %s\n", d.LogLevel)
	fmt.Fprintf(&b, "token path:    %s\n", orDash(d.TokenPath))
	fmt.Fprintf(&b, "session:       %s\n", d.Phase)
	fmt.Fprintf(&b, "location:      %s\n", d.Location)
	if d.Overall != "" {
		fmt.Fprintf(&b, "health:        %s\n", d.Overall)
		names := make([]string, 0, len(d.Checks))
		for name := range d.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := d.Checks[name]
			fmt.Fprintf(&b, "  %-12s %-9s %s (%s)\n", name, r.Status, r.Message, r.Latency.Round(time.Millisecond))
		}
	}
	b.WriteString("metrics:")
	if len(d.Metrics) == 0 {
		b.WriteString(" none")
	}
	for _, s := range d.Metrics {
		fmt.Fprintf(&b, "\n  %s%s %g", s.Name, formatLabels(s.Labels), s.Value)
	}
	return b.String()
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

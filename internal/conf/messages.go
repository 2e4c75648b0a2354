package conf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MessagesConfig holds every user-facing text of the bot, loaded from YAML
type MessagesConfig struct {
	Buttons  ButtonTexts  `yaml:"buttons"`
	Status   StatusTexts  `yaml:"status"`
	Replies  ReplyTexts   `yaml:"replies"`
	Actioned ActionedText `yaml:"actioned"`
}

// ButtonTexts are the labels of card buttons
type ButtonTexts struct {
	CheckIn    string `yaml:"checkin"`
	CheckOut   string `yaml:"checkout"`
	MarkAbsent string `yaml:"sickleave"`
	Dismiss    string `yaml:"dismiss"`
}

// StatusTexts render one child's status. Placeholders: {{name}}, {{in}},
// {{out}}, {{note}}.
type StatusTexts struct {
	Unknown       string `yaml:"unknown"`
	NotYetArrived string `yaml:"not_yet_arrived"`
	CheckedIn     string `yaml:"checked_in"`
	CheckedOut    string `yaml:"checked_out"`
	Absent        string `yaml:"absent"`
	AbsentNoNote  string `yaml:"absent_no_note"`
}

// ReplyTexts are standalone replies
type ReplyTexts struct {
	Help          string `yaml:"help"`
	Greeting      string `yaml:"greeting"`
	NoChildren    string `yaml:"no_children"`
	UnknownChoice string `yaml:"unknown_choice"`
	Failure       string `yaml:"failure"`
	Processing    string `yaml:"processing"`
	Dismissed     string `yaml:"dismissed"`
}

// ActionedText prefixes the status line after a successful action.
// Placeholder: {{status}}.
type ActionedText struct {
	Confirmation string `yaml:"confirmation"`
}

// LoadMessagesConfig loads the messages configuration from a YAML file
func LoadMessagesConfig(configPath string) (*MessagesConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/feishu-daycare-bot/messages.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			data, loadedPath = b, p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("messages config %s not readable", configPath)
		}
		logger().Info("no messages.yaml found, using defaults")
		return DefaultMessagesConfig(), nil
	}

	logger().Info("loading messages", "path", loadedPath)
	return ParseMessagesConfig(data)
}

// ParseMessagesConfig parses YAML and fills every missing text from the defaults
func ParseMessagesConfig(data []byte) (*MessagesConfig, error) {
	var config MessagesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse messages.yaml: %w", err)
	}
	config.fillDefaults()
	return &config, nil
}

func (c *MessagesConfig) fillDefaults() {
	d := DefaultMessagesConfig()

	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}

	fill(&c.Buttons.CheckIn, d.Buttons.CheckIn)
	fill(&c.Buttons.CheckOut, d.Buttons.CheckOut)
	fill(&c.Buttons.MarkAbsent, d.Buttons.MarkAbsent)
	fill(&c.Buttons.Dismiss, d.Buttons.Dismiss)

	fill(&c.Status.Unknown, d.Status.Unknown)
	fill(&c.Status.NotYetArrived, d.Status.NotYetArrived)
	fill(&c.Status.CheckedIn, d.Status.CheckedIn)
	fill(&c.Status.CheckedOut, d.Status.CheckedOut)
	fill(&c.Status.Absent, d.Status.Absent)
	fill(&c.Status.AbsentNoNote, d.Status.AbsentNoNote)

	fill(&c.Replies.Help, d.Replies.Help)
	fill(&c.Replies.Greeting, d.Replies.Greeting)
	fill(&c.Replies.NoChildren, d.Replies.NoChildren)
	fill(&c.Replies.UnknownChoice, d.Replies.UnknownChoice)
	fill(&c.Replies.Failure, d.Replies.Failure)
	fill(&c.Replies.Processing, d.Replies.Processing)
	fill(&c.Replies.Dismissed, d.Replies.Dismissed)

	fill(&c.Actioned.Confirmation, d.Actioned.Confirmation)
}

// DefaultMessagesConfig returns the compiled-in texts
func DefaultMessagesConfig() *MessagesConfig {
	return &MessagesConfig{
		Buttons: ButtonTexts{
			CheckIn:    "Check in",
			CheckOut:   "Check out",
			MarkAbsent: "Sick leave",
			Dismiss:    "Dismiss",
		},
		Status: StatusTexts{
			Unknown:       "**{{name}}**: no attendance record today",
			NotYetArrived: "**{{name}}**: not checked in yet",
			CheckedIn:     "**{{name}}**: checked in at {{in}}",
			CheckedOut:    "**{{name}}**: checked in at {{in}}, checked out at {{out}}",
			Absent:        "**{{name}}**: absent ({{note}})",
			AbsentNoNote:  "**{{name}}**: absent",
		},
		Replies: ReplyTexts{
			Help: "Send any message to see today's attendance of your children.\n" +
				"Use the buttons under each child to check in, check out or report a sick leave.\n" +
				"/start - greeting and status\n/help - this text",
			Greeting:      "Hi! Here is today's attendance.",
			NoChildren:    "No children found on your accounts.",
			UnknownChoice: "Unknown choice, please request the status again.",
			Failure:       "The daycare portal could not be reached, please try again later.",
			Processing:    "Working on it...",
			Dismissed:     "Dismissed.",
		},
		Actioned: ActionedText{
			Confirmation: "Done. {{status}}",
		},
	}
}

// FormatStatus fills a status template
func FormatStatus(template, name, in, out, note string) string {
	r := strings.NewReplacer(
		"{{name}}", name,
		"{{in}}", in,
		"{{out}}", out,
		"{{note}}", note,
	)
	return r.Replace(template)
}

// FormatConfirmation wraps a rendered status line
func (c *MessagesConfig) FormatConfirmation(status string) string {
	return strings.ReplaceAll(c.Actioned.Confirmation, "{{status}}", status)
}

func logger() *slog.Logger {
	return slog.With("component", "config")
}

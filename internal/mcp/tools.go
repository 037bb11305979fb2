package mcp

import "github.com/mark3labs/mcp-go/mcp"

var convertToolDef = mcp.NewTool("minutes_convert",
	mcp.WithDescription("Convert an IRC meeting log into markdown minutes. "+
		"Provide the log inline (log) or as a file path or http(s) URL (log_source). "+
		"Local files must be directly in ~/.scribe/logs or a configured allowed path."),
	mcp.WithString("log", mcp.Description("Inline IRC log text")),
	mcp.WithString("log_source", mcp.Description("Path or http(s) URL of the IRC log")),
	mcp.WithString("nicknames", mcp.Description("Path or http(s) URL of a JSON or YAML nickname table")),
	mcp.WithString("date", mcp.Description("Meeting date (YYYY-MM-DD); default: the log's date: line, then today")),
	mcp.WithString("meeting", mcp.Description("Meeting name used when the log has no meeting: line")),
	mcp.WithString("jekyll", mcp.Description("Publishing target"), mcp.Enum("none", "md", "kd")),
	mcp.WithString("irc_format", mcp.Description("Force the log format"), mcp.Enum("rrsagent", "irccloud", "textual", "plain")),
	mcp.WithString("ghrepo", mcp.Description("org/repo of the published minutes")),
	mcp.WithString("issuerepo", mcp.Description("org/repo for issue and pull request references")),
	mcp.WithString("acrepo", mcp.Description("org/repo where action items are tracked")),
	mcp.WithString("acurlpattern", mcp.Description("Action item link; {id} is replaced by the action id")),
	mcp.WithString("agenda", mcp.Description("Agenda URL")),
	mcp.WithBoolean("final", mcp.Description("Omit the draft notice")),
	mcp.WithBoolean("pandoc", mcp.Description("Emit a pandoc title block")),
	mcp.WithBoolean("auto", mcp.Description("Record the action items in the local action store")),
	mcp.WithBoolean("html", mcp.Description("Also return the minutes rendered to HTML")),
	mcp.WithBoolean("write", mcp.Description("Write the minutes to a file (output_path or ~/.scribe/minutes/<date>-<meeting>.md)")),
	mcp.WithString("output_path", mcp.Description("Destination .md or .html file; implies write")),
)

var actionsListToolDef = mcp.NewTool("actions_list",
	mcp.WithDescription("List action items recorded from converted minutes, newest meeting first."),
	mcp.WithString("date", mcp.Description("Only actions from this meeting date (YYYY-MM-DD)")),
	mcp.WithString("meeting", mcp.Description("Only actions from this meeting")),
	mcp.WithString("assignee", mcp.Description("Only actions assigned to this person (case-insensitive)")),
	mcp.WithBoolean("include_closed", mcp.Description("Include closed actions")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var actionsCloseToolDef = mcp.NewTool("actions_close",
	mcp.WithDescription("Mark a recorded action item as done."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Stored action id (ULID) as returned by actions_list")),
)

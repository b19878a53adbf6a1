package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"feedbackboard/internal/board"
	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
	contextutils "feedbackboard/internal/utils"

	"golang.org/x/term"
)

const (
	emptyListLabel = "暂无反馈"
	minSnippetRoom = 20
)

// terminalWidth returns the column count when out is a terminal, or 0
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// snippetLimit fits list snippets to the terminal when one is attached
func snippetLimit(width int) int {
	if width <= 0 {
		return config.SnippetLength
	}
	room := width - 4
	if room < minSnippetRoom {
		room = minSnippetRoom
	}
	if room > config.SnippetLength {
		room = config.SnippetLength
	}
	return room
}

func renderStats(w io.Writer, stats models.FeedbackStats) {
	fmt.Fprintf(w, "共 %d 条 | 待处理 %d | 已解决 %d | 我的 %d\n", stats.Total, stats.Pending, stats.Resolved, stats.Mine)
}

func renderCriteria(w io.Writer, criteria models.FilterCriteria) {
	var parts []string
	if criteria.Type != "" {
		parts = append(parts, "类型: "+board.TypeLabel(models.FeedbackType(criteria.Type)))
	}
	if criteria.Status != "" {
		parts = append(parts, "状态: "+board.StatusLabel(models.FeedbackStatus(criteria.Status)))
	}
	if criteria.Search != "" {
		parts = append(parts, fmt.Sprintf("搜索: %q", criteria.Search))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, "筛选 "+strings.Join(parts, " | "))
	}
}

// renderList prints the current page of state followed by the navigation bar
func renderList(w io.Writer, state board.State, nav []board.NavItem, width int) {
	renderStats(w, state.Stats)
	renderCriteria(w, state.Criteria)

	if state.Phase == board.PhaseFailed && state.LastError != nil {
		fmt.Fprintf(w, "加载失败: %s\n", contextutils.UserMessage(state.LastError))
	}

	rows := board.Rows(state)
	if len(rows) == 0 {
		fmt.Fprintln(w, emptyListLabel)
		return
	}

	limit := snippetLimit(width)
	for _, row := range rows {
		fmt.Fprintln(w)
		renderRow(w, row, limit)
	}

	fmt.Fprintln(w)
	if bar := navBar(nav); bar != "" {
		fmt.Fprintln(w, bar)
	}
	fmt.Fprintf(w, "第 %d/%d 页\n", state.Pagination.CurrentPage, state.Pagination.TotalPages)
}

func renderRow(w io.Writer, row board.Row, snippetRunes int) {
	title := row.Title
	if row.Mine {
		title += " (" + board.MineLabel + ")"
	}
	fmt.Fprintf(w, "#%d %s  [%s] [%s]\n", row.ID, title, row.TypeLabel, row.StatusLabel)

	snippet := board.Snippet(row.Snippet, snippetRunes)
	if snippet != "" {
		fmt.Fprintf(w, "    %s\n", snippet)
	}

	like := "👍"
	if row.Liked {
		like = "👍✓"
	}
	fmt.Fprintf(w, "    %s · %s · %s %d\n", row.Author, row.Created, like, row.Likes)
}

// navBar renders the navigation descriptors; disabled entries are bracketed
func navBar(items []board.NavItem) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case board.NavPrevDisabled:
			parts = append(parts, "(上一页)")
		case board.NavPrev:
			parts = append(parts, "‹ 上一页")
		case board.NavPageNumber:
			if item.Active {
				parts = append(parts, fmt.Sprintf("[%d]", item.Page))
			} else {
				parts = append(parts, fmt.Sprintf("%d", item.Page))
			}
		case board.NavNext:
			parts = append(parts, "下一页 ›")
		case board.NavNextDisabled:
			parts = append(parts, "(下一页)")
		}
	}
	return strings.Join(parts, " ")
}

// renderDetail prints one record in full
func renderDetail(w io.Writer, view board.DetailView) {
	title := view.Title
	if view.Mine {
		title += " (" + board.MineLabel + ")"
	}
	fmt.Fprintf(w, "#%d %s\n", view.ID, title)
	fmt.Fprintf(w, "%s · %s\n", view.TypeLabel, view.StatusLabel)
	fmt.Fprintf(w, "%s · %s · 👍 %d\n", view.Author, view.Created, view.Likes)
	fmt.Fprintln(w)
	fmt.Fprintln(w, view.Content)

	if view.HasResponse {
		fmt.Fprintln(w)
		header := board.ResponseLabel
		if view.RespondedAt != "" {
			header += " (" + view.RespondedAt + ")"
		}
		fmt.Fprintln(w, header+":")
		fmt.Fprintln(w, view.Response)
	}

	var actions []string
	actions = append(actions, "like")
	if view.CanModerate {
		actions = append(actions, "respond", "status")
	}
	if view.CanDelete {
		actions = append(actions, "delete")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "可用操作: "+strings.Join(actions, ", "))
}

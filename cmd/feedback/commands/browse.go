package commands

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"feedbackboard/internal/board"
	"feedbackboard/internal/models"
	contextutils "feedbackboard/internal/utils"

	"github.com/spf13/cobra"
)

const browseHelp = `命令:
  n / p            下一页 / 上一页
  g PAGE           跳到指定页
  f TYPE [STATUS]  筛选类型和状态 (用 - 表示不限)
  s [TEXT]         搜索 (留空清除)
  o ID / c         打开 / 关闭详情
  l ID             点赞或取消点赞
  r ID TEXT        回复 (教师/管理员)
  st ID STATUS     修改状态 (教师/管理员)
  d ID             删除
  new TYPE TITLE | CONTENT
                   提交反馈
  h                显示帮助
  q                退出`

// browseCmd returns the interactive browse command
func browseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the board interactively",
		Long: `Browse the board interactively.

Reads one command per line. Paging never refetches; filters, search and
writes reload the list from the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return browse(cmd.Context(), opts.sess)
		},
	}
}

func browse(ctx context.Context, s *session) error {
	state, err := s.controller.Dispatch(ctx, board.LoadRequested{})
	if err != nil {
		fmt.Fprintf(s.out, "加载失败: %s\n", contextutils.UserMessage(err))
	}
	renderList(s.out, state, s.controller.Nav(), s.width)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := browseStep(ctx, s, line)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "错误: %s\n", contextutils.UserMessage(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// browseStep runs one browse command line and renders the result
func browseStep(ctx context.Context, s *session, line string) (bool, error) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)
	current := s.controller.State()

	var intent board.Intent
	switch strings.ToLower(verb) {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help", "?":
		fmt.Fprintln(s.out, browseHelp)
		return false, nil
	case "n", "next":
		intent = board.PageRequested{Page: current.Pagination.CurrentPage + 1}
	case "p", "prev":
		intent = board.PageRequested{Page: current.Pagination.CurrentPage - 1}
	case "g", "go":
		page, err := strconv.Atoi(rest)
		if err != nil {
			return false, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid page %q", rest)
		}
		intent = board.PageRequested{Page: page}
	case "f", "filter":
		intent = board.FilterChanged{Type: anyValue(args, 0), Status: anyValue(args, 1)}
	case "s", "search":
		intent = board.SearchSubmitted{Query: rest}
	case "o", "open":
		id, err := idArg(args)
		if err != nil {
			return false, err
		}
		intent = board.DetailRequested{ID: id}
	case "c", "close":
		intent = board.DetailClosed{}
	case "l", "like":
		id, err := idArg(args)
		if err != nil {
			return false, err
		}
		intent = board.LikeRequested{ID: id}
	case "r", "respond":
		id, err := idArg(args)
		if err != nil {
			return false, err
		}
		intent = board.RespondRequested{ID: id, Text: strings.Join(args[1:], " ")}
	case "st", "status":
		id, err := idArg(args)
		if err != nil {
			return false, err
		}
		if len(args) < 2 {
			return false, contextutils.WrapError(contextutils.ErrMissingRequired, "status is required")
		}
		intent = board.StatusRequested{ID: id, Status: models.FeedbackStatus(strings.ToLower(args[1]))}
	case "d", "delete":
		id, err := idArg(args)
		if err != nil {
			return false, err
		}
		intent = board.DeleteRequested{ID: id}
	case "new":
		draft, err := parseDraft(rest)
		if err != nil {
			return false, err
		}
		intent = board.CreateRequested{Draft: draft}
	default:
		return false, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown command %q, type h for help", verb)
	}

	state, err := s.controller.Dispatch(ctx, intent)
	if err != nil {
		return false, err
	}

	switch intent.(type) {
	case board.DetailRequested, board.LikeRequested, board.RespondRequested, board.StatusRequested:
		if state.Detail != nil {
			renderDetail(s.out, board.NewDetailView(*state.Detail, s.userID, s.cfg.Client.Role))
			return false, nil
		}
	}
	renderList(s.out, state, s.controller.Nav(), s.width)
	return false, nil
}

func idArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, contextutils.WrapError(contextutils.ErrMissingRequired, "feedback ID is required")
	}
	return parseID(args[0])
}

// anyValue returns args[i], with "-" or a missing entry meaning no filter
func anyValue(args []string, i int) string {
	if i >= len(args) || args[i] == "-" {
		return ""
	}
	return args[i]
}

// parseDraft reads "TYPE TITLE | CONTENT"
func parseDraft(rest string) (models.Draft, error) {
	feedbackType, body, _ := strings.Cut(rest, " ")
	title, content, found := strings.Cut(body, "|")
	if !found {
		return models.Draft{}, contextutils.WrapError(contextutils.ErrInvalidInput, "expected: new TYPE TITLE | CONTENT")
	}
	return models.Draft{
		Type:    models.FeedbackType(feedbackType),
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}, nil
}

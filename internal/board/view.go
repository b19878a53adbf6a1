package board

import (
	"strings"
	"time"
	"unicode/utf8"

	"feedbackboard/internal/config"
	"feedbackboard/internal/models"
)

// Placeholders for missing record fields
const (
	UntitledLabel  = "无标题"
	NoContentLabel = "无内容"
	AnonymousLabel = "匿名用户"
	UnknownTime    = "未知时间"
	MineLabel      = "我的反馈"
	ResponseLabel  = "教师回复"
)

var typeLabels = map[models.FeedbackType]string{
	models.TypeBug:        "🐛 Bug报告",
	models.TypeFeature:    "✨ 功能建议",
	models.TypePraise:     "👍 点赞表扬",
	models.TypeSuggestion: "💡 学习建议",
	models.TypeQuestion:   "❓ 问题咨询",
	models.TypeOther:      "📝 其他",
}

var statusLabels = map[models.FeedbackStatus]string{
	models.StatusPending:    "⏳ 待处理",
	models.StatusProcessing: "🔄 处理中",
	models.StatusResolved:   "✅ 已解决",
	models.StatusClosed:     "🔒 已关闭",
}

var statusColors = map[models.FeedbackStatus]string{
	models.StatusPending:    "#e6a23c",
	models.StatusProcessing: "#409eff",
	models.StatusResolved:   "#67c23a",
	models.StatusClosed:     "#909399",
}

const defaultStatusColor = "#909399"

// TypeLabel is the display label of a feedback type. Unknown types show as-is.
func TypeLabel(t models.FeedbackType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	if t == "" {
		return typeLabels[models.TypeOther]
	}
	return string(t)
}

// StatusLabel is the display label of a status; open reads as pending
func StatusLabel(s models.FeedbackStatus) string {
	if s == "" {
		return statusLabels[models.StatusPending]
	}
	if label, ok := statusLabels[s.Normalize()]; ok {
		return label
	}
	return string(s)
}

// StatusColor is the hex colour used for a status badge
func StatusColor(s models.FeedbackStatus) string {
	if color, ok := statusColors[s.Normalize()]; ok {
		return color
	}
	return defaultStatusColor
}

// Snippet collapses whitespace in content and truncates it to limit runes,
// appending an ellipsis when cut.
func Snippet(content string, limit int) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if limit <= 0 || utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:limit]) + "…"
}

// FormatTime renders a timestamp in local time, or a placeholder when unset
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Row is a display-ready list entry
type Row struct {
	ID          int64
	Title       string
	TypeLabel   string
	StatusLabel string
	StatusColor string
	Author      string
	Created     string
	Likes       int
	Liked       bool
	Mine        bool
	Snippet     string
}

// NewRow formats rec for the list view of userID
func NewRow(rec models.FeedbackRecord, userID string) Row {
	return Row{
		ID:          rec.ID,
		Title:       orDefault(rec.Title, UntitledLabel),
		TypeLabel:   TypeLabel(rec.Type),
		StatusLabel: StatusLabel(rec.Status),
		StatusColor: StatusColor(rec.Status),
		Author:      orDefault(rec.AuthorID, AnonymousLabel),
		Created:     FormatTime(rec.CreatedAt),
		Likes:       rec.LikeCount,
		Liked:       rec.LikedByCurrentUser,
		Mine:        rec.IsOwnedBy(userID),
		Snippet:     Snippet(rec.Content, config.SnippetLength),
	}
}

// Rows formats the current page of s
func Rows(s State) []Row {
	window := s.Window()
	rows := make([]Row, 0, len(window))
	for _, rec := range window {
		rows = append(rows, NewRow(rec, s.UserID))
	}
	return rows
}

// DetailView is a display-ready detail entry
type DetailView struct {
	Row
	Content     string
	Response    string
	RespondedAt string
	HasResponse bool
	// CanModerate is set for staff, who may reply and change status.
	CanModerate bool
	// CanDelete is set for the author and for staff.
	CanDelete bool
}

// NewDetailView formats rec for the detail view of userID with role
func NewDetailView(rec models.FeedbackRecord, userID, role string) DetailView {
	staff := config.IsStaffRole(role)
	view := DetailView{
		Row:         NewRow(rec, userID),
		Content:     orDefault(strings.TrimSpace(rec.Content), NoContentLabel),
		CanModerate: staff,
		CanDelete:   staff || rec.IsOwnedBy(userID),
	}
	if rec.HasResponse() {
		view.HasResponse = true
		view.Response = *rec.TeacherResponse
		if rec.RespondedAt != nil {
			view.RespondedAt = FormatTime(*rec.RespondedAt)
		}
	}
	return view
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

package app

import (
	"strings"

	"github.com/deusflow/newsbot/internal/news"
	"github.com/deusflow/newsbot/internal/textutil"
)

var entityLabels = map[news.EntityCategory]string{
	news.CategoryPerson:       "人物",
	news.CategoryOrganization: "組織",
	news.CategoryLocation:     "地點",
	news.CategoryEvent:        "事件",
	news.CategoryWorkOfArt:    "作品",
	news.CategoryConsumerGood: "產品",
	news.CategoryOther:        "關鍵詞",
}

// FormatMessage renders a digest entry as the pushed chat text.
func FormatMessage(label string, r news.SummaryResult) string {
	var b strings.Builder

	b.WriteString("【" + label + "】\n")

	if r.Language.IsChinese() || textutil.ContainsCJK(r.Title) {
		b.WriteString(r.Title)
	} else {
		b.WriteString("「" + r.Title + "」")
	}
	b.WriteString("\n\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n【關鍵資訊】\n")

	shown := false
	for _, category := range news.Categories {
		names := r.Entities[category]
		if len(names) == 0 {
			continue
		}
		b.WriteString("• " + entityLabels[category] + "：" + strings.Join(names, ", ") + "\n")
		shown = true
	}
	if !shown {
		b.WriteString("• 無顯著關鍵詞\n")
	}

	b.WriteString("\n閱讀全文：" + r.Link)
	return b.String()
}

package app

import (
	"testing"

	"github.com/deusflow/newsbot/internal/news"
)

func TestFormatMessageChinese(t *testing.T) {
	got := FormatMessage("科技新聞", news.SummaryResult{
		Title:   "台積電宣布擴產",
		Summary: "台積電今日宣布擴產計畫。",
		Entities: news.EntityMap{
			news.CategoryOther:        {"晶圓"},
			news.CategoryPerson:       {"魏哲家"},
			news.CategoryOrganization: {"台積電", "蘋果"},
		},
		Language: "zh-Hant",
		Link:     "https://example.com/a",
	})

	want := "【科技新聞】\n台積電宣布擴產\n\n台積電今日宣布擴產計畫。\n\n【關鍵資訊】\n" +
		"• 人物：魏哲家\n• 組織：台積電, 蘋果\n• 關鍵詞：晶圓\n" +
		"\n閱讀全文：https://example.com/a"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatMessageEnglishWithoutEntities(t *testing.T) {
	got := FormatMessage("商業新聞", news.SummaryResult{
		Title:    "Markets rally",
		Summary:  "Stocks rose.",
		Entities: news.EntityMap{},
		Language: news.LanguageEnglish,
		Link:     "#",
	})

	want := "【商業新聞】\n「Markets rally」\n\nStocks rose.\n\n【關鍵資訊】\n• 無顯著關鍵詞\n\n閱讀全文：#"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatMessageCJKTitleOverridesLanguage(t *testing.T) {
	got := FormatMessage("科技新聞", news.SummaryResult{Title: "蘋果 WWDC", Language: news.LanguageEnglish})
	if got[:len("【科技新聞】\n蘋果")] != "【科技新聞】\n蘋果" {
		t.Errorf("got %q", got)
	}
}

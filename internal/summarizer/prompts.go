package summarizer

import (
	"fmt"

	"github.com/deusflow/newsbot/internal/news"
)

const chineseSummaryPrompt = `請幫我將以下新聞內容生成一個簡潔、流暢的中文摘要，長度約%d字以內。
摘要必須是繁體中文，不要使用英文。
保留最重要的事實和細節，但不要添加原文中沒有的信息。

新聞內容：
%s

請直接給出摘要，不要加入額外的說明或引言。`

const englishSummaryPrompt = `Please create a concise and coherent summary of the following news article,
in about %d characters. Retain the most important facts and details,
but don't add information not present in the original text.

News content:
%s

Provide the summary directly without additional explanations or introductions.`

const chineseEntityPrompt = `請從以下新聞內容中提取重要的實體，並按以下類別分類：
人物 (PERSON)、組織 (ORGANIZATION)、地點 (LOCATION)、事件 (EVENT)、藝術作品/產品 (WORK_OF_ART)、
消費品 (CONSUMER_GOOD) 和其他重要關鍵詞 (OTHER)。

每個類別最多列出%d個最重要的實體。如果某類別沒有實體，請省略該類別。

新聞內容：
%s

請以JSON格式輸出，格式如下：
{
  "PERSON": ["人名1", "人名2"],
  "ORGANIZATION": ["組織1", "組織2"]
}

僅返回JSON格式的結果，不要有其他文字。`

const englishEntityPrompt = `Extract important entities from the following news content and categorize them by:
PERSON, ORGANIZATION, LOCATION, EVENT, WORK_OF_ART, CONSUMER_GOOD, and OTHER important keywords.

For each category, list up to %d most important entities. Omit categories with no entities.

News content:
%s

Output in JSON format like:
{
  "PERSON": ["name1", "name2"],
  "ORGANIZATION": ["org1", "org2"]
}

Return only the JSON result without any other text.`

func summaryPrompt(text string, lang news.Language, maxLen int) string {
	if lang.IsChinese() {
		return fmt.Sprintf(chineseSummaryPrompt, maxLen, text)
	}
	return fmt.Sprintf(englishSummaryPrompt, maxLen, text)
}

func entityPrompt(text string, lang news.Language, perCategory int) string {
	if lang.IsChinese() {
		return fmt.Sprintf(chineseEntityPrompt, perCategory, text)
	}
	return fmt.Sprintf(englishEntityPrompt, perCategory, text)
}

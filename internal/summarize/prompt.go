package summarize

import (
	"fmt"
	"strings"

	"github.com/DeafMist/mundus/backend/internal/models"
)

const (
	// DefaultInstructions applies to single-article summaries without caller instructions.
	DefaultInstructions = "Please provide a concise summary of the following news article, highlighting the key points and maintaining an objective tone."
	// DefaultMergedInstructions applies to merged summaries without caller instructions.
	DefaultMergedInstructions = "Please provide a comprehensive summary of the following news articles, highlighting the key points and maintaining an objective tone."

	singleSystem = "You are a professional news analyst providing concise, objective summaries of news articles."
	mergedSystem = "You are a professional news analyst providing comprehensive, objective summaries of multiple related news articles."

	singleMaxTokens = 500
	mergedMaxTokens = 2000
)

const britishEnglish = `ONLY use British English - avoid Americanisms and other non-British English expressions. "Z" turn to "S" and "Center" turn to "Centre", Defence instead of Defense.`

const responseFormat = `Format your response as:
HEADLINE: [Your headline here]
SUMMARY: [Your summary here]`

const singleTemplate = `Title: %s
Source: %s
Date: %s

%s

Content to summarize:
%s

Please provide:
1. A compelling headline in bold that captures the essence of the article (distinct from the original title)
2. A well-structured summary that includes:
   - Key points
   - Main arguments
   - STAY FACTUAL AND OBJECTIVE - avoid loaded language and only summarise the facts reported in original article
   - %s
   - Keep it short and concise - maximum 200 words.

%s`

const mergedTemplate = `%s

%s

Please provide:
1. A compelling headline in bold that captures the essence of the combined articles (distinct from the original titles)
2. A comprehensive summary that includes:
   - Key points from all articles
   - Main arguments and their connections
   - STAY FACTUAL AND OBJECTIVE - avoid loaded language and only summarise the facts reported in original articles
   - %s
   - Keep it concise but comprehensive - maximum 400 words.
   - Highlight any patterns, connections, or contradictions between the articles.

%s`

func instructionsOr(instructions, fallback string) string {
	if strings.TrimSpace(instructions) == "" {
		return fallback
	}
	return instructions
}

func singlePrompt(a models.SummaryArticle, instructions, content string) string {
	return fmt.Sprintf(singleTemplate,
		a.Title, a.Source, a.Published,
		instructionsOr(instructions, DefaultInstructions),
		content,
		britishEnglish,
		responseFormat,
	)
}

type mergedEntry struct {
	article models.SummaryArticle
	content string
}

func mergedPrompt(entries []mergedEntry, instructions string) string {
	blocks := make([]string, 0, len(entries))
	for i, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Article %d:\nTitle: %s\nSource: %s\nDate: %s\nContent: %s",
			i+1, e.article.Title, e.article.Source, e.article.Published, e.content))
	}
	return fmt.Sprintf(mergedTemplate,
		instructionsOr(instructions, DefaultMergedInstructions),
		strings.Join(blocks, "\n\n"),
		britishEnglish,
		responseFormat,
	)
}

// ParseSummary splits a HEADLINE:/SUMMARY: response. Missing parts come back empty.
func ParseSummary(text string) (headline, body string) {
	var bodyLines []string
	inBody := false

	for _, line := range strings.Split(text, "\n") {
		plain := strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		upper := strings.ToUpper(plain)

		switch {
		case strings.HasPrefix(upper, "HEADLINE:"):
			headline = strings.TrimSpace(plain[len("HEADLINE:"):])
			inBody = false
		case strings.HasPrefix(upper, "SUMMARY:"):
			inBody = true
			if rest := strings.TrimSpace(plain[len("SUMMARY:"):]); rest != "" {
				bodyLines = append(bodyLines, rest)
			}
		case inBody:
			bodyLines = append(bodyLines, strings.TrimRight(line, " \t\r"))
		}
	}

	return headline, strings.TrimSpace(strings.Join(bodyLines, "\n"))
}

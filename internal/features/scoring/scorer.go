package scoring

import (
	"sort"
	"strings"

	"serotonyl.ru/antiscam-bot/internal/models"
)

// Значения по умолчанию.
const (
	DefaultImageSuspiciousness     = 0.3
	DefaultSuspiciousnessThreshold = 1.0
)

// misencodedApostrophe — правая кавычка U+2019, прочитанная как Windows-1252.
// Встречается в реальных скам-текстах; заменяем только эту последовательность.
const misencodedApostrophe = "â€™"

// Scorer считает вес сообщения по таблице ключевых слов и вложениям.
// Безопасен для конкурентного использования: состояние только читается.
type Scorer struct {
	keywords            KeywordTable
	imageSuspiciousness float64
	threshold           float64
}

// NewScorer создаёт оценщик.
func NewScorer(keywords KeywordTable, imageSuspiciousness, threshold float64) *Scorer {
	return &Scorer{
		keywords:            keywords,
		imageSuspiciousness: imageSuspiciousness,
		threshold:           threshold,
	}
}

// Threshold возвращает порог подозрительности.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score суммирует веса всех найденных ключевых слов и бонус за каждое
// вложение-картинку. Ошибок нет: пустой или кривой MIME-тип просто не считается.
func (s *Scorer) Score(content string, attachmentContentTypes []string) float64 {
	normalized := normalize(content)

	score := 0.0
	for keyword, weight := range s.keywords {
		if strings.Contains(normalized, keyword) {
			score += weight
		}
	}
	for _, ct := range attachmentContentTypes {
		if strings.HasPrefix(ct, "image/") {
			score += s.imageSuspiciousness
		}
	}
	return score
}

// ScoreMessage — Score для готового сообщения.
func (s *Scorer) ScoreMessage(m models.Message) float64 {
	return s.Score(m.Content, m.AttachmentTypes())
}

// IsSuspicious: порог включительно, 1.0 при пороге 1.0 — подозрительно.
func (s *Scorer) IsSuspicious(score float64) bool {
	return score >= s.threshold
}

// Matches возвращает найденные ключевые слова (отсортированы) — для диагностики.
func (s *Scorer) Matches(content string) []string {
	normalized := normalize(content)

	var out []string
	for keyword := range s.keywords {
		if strings.Contains(normalized, keyword) {
			out = append(out, keyword)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(content string) string {
	content = strings.ToLower(content)
	return strings.ReplaceAll(content, misencodedApostrophe, "'")
}

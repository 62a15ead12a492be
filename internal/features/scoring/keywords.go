// Package scoring вычисляет «подозрительность» сообщения.
// keywords.go загружает таблицу ключевых слов (слово → вес) из JSON или YAML.
package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"serotonyl.ru/antiscam-bot/internal/common"
)

// KeywordTable — слово в нижнем регистре → вес.
// Загружается один раз при старте и дальше только читается.
type KeywordTable map[string]float64

// LoadKeywords читает таблицу из файла. Формат выбирается по расширению:
// .yaml/.yml → YAML, всё остальное → JSON (как исходный keywords.json).
//
// Ошибка здесь фатальна для процесса: без таблицы бот работать не должен.
func LoadKeywords(path string) (KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}

	raw := map[string]float64{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}

	return NewKeywordTable(raw)
}

// NewKeywordTable нормализует ключи к нижнему регистру и проверяет веса.
// Если два ключа совпадают после нормализации, их веса складываются.
func NewKeywordTable(raw map[string]float64) (KeywordTable, error) {
	if len(raw) == 0 {
		return nil, common.ErrKeywordTableEmpty
	}

	table := make(KeywordTable, len(raw))
	for keyword, weight := range raw {
		k := strings.ToLower(keyword)
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: пустой ключ", common.ErrKeywordInvalid)
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("%w: %q имеет вес %v", common.ErrKeywordInvalid, keyword, weight)
		}
		table[k] += weight
	}
	return table, nil
}

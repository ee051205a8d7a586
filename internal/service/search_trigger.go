package service

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// Фразы, после которых сообщение пользователя трактуется как запрос
// актуальной информации из веба.
var searchTriggerPhrases = []string{
	"search for",
	"search the web",
	"look up",
	"google",
	"find information about",
	"what is the latest",
	"latest news",
	"news about",
	"current weather",
	"weather in",
	"current price",
	"price of",
	"what happened today",
	"what happened with",
}

// searchTrigger определяет, требует ли сообщение веб-поиска.
// Сопоставление по словарю фраз через автомат Ахо-Корасик.
type searchTrigger struct {
	automaton *ahocorasick.Automaton
}

func newSearchTrigger() (*searchTrigger, error) {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(searchTriggerPhrases).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	return &searchTrigger{automaton: automaton}, nil
}

// Detect returns the search query derived from the message and whether a
// trigger phrase was found. When phrases overlap the rightmost match wins,
// so the query is the tail after the last trigger phrase; an empty tail
// falls back to the whole message.
func (t *searchTrigger) Detect(message string) (string, bool) {
	lowered := strings.ToLower(message)
	matches := t.automaton.FindAllOverlapping([]byte(lowered))
	if len(matches) == 0 {
		return "", false
	}

	// Срез берем по lowered: ToLower может менять длину байтов вне ASCII.
	last := matches[len(matches)-1]
	tail := strings.TrimSpace(strings.Trim(lowered[last.End:], " ?!.,:;"))
	if tail == "" {
		tail = strings.TrimSpace(message)
	}
	return tail, true
}

// Package analysis scores daily-check answers and folds scored answers into
// synthesis summaries. Everything here is pure and deterministic so handlers
// can retry a job and get the same stored result.
package analysis

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Signal names attached to an analysis.
const (
	SignalFatigue = "fatigue"
	SignalStress  = "stress"
	SignalSleep   = "sleep"
	SignalSocial  = "social"
	SignalGrowth  = "growth"
)

// ErrEmptyAnswer is returned for answers with no words.
var ErrEmptyAnswer = errors.New("answer has no words to analyse")

var (
	positiveWords = wordSet("good", "great", "happy", "calm", "rested", "energized", "energetic",
		"grateful", "glad", "excited", "proud", "relaxed", "fine", "better", "love", "enjoyed")
	negativeWords = wordSet("tired", "sad", "bad", "angry", "anxious", "stressed", "exhausted",
		"worried", "lonely", "awful", "terrible", "overwhelmed", "sick", "worse", "drained", "upset")
	negators = wordSet("not", "no", "never", "hardly", "barely", "dont", "didnt", "isnt", "wasnt")

	signalWords = map[string]map[string]struct{}{
		SignalFatigue: wordSet("tired", "exhausted", "drained", "sleepy", "fatigued", "weary"),
		SignalStress:  wordSet("stressed", "anxious", "overwhelmed", "worried", "pressure", "deadline"),
		SignalSleep:   wordSet("sleep", "slept", "insomnia", "nap", "bed", "awake"),
		SignalSocial:  wordSet("friend", "friends", "family", "lonely", "partner", "talked"),
		SignalGrowth:  wordSet("learned", "progress", "goal", "goals", "improved", "practice"),
	}
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// tokenize lowercases text and splits it on anything that is not a letter or digit.
// Apostrophes are dropped so "didn't" matches "didnt".
func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Analyze computes word and character counts, a lexicon sentiment and the
// signals present in text.
func Analyze(text string) (model.AnswerAnalysis, error) {
	words := tokenize(text)
	if len(words) == 0 {
		return model.AnswerAnalysis{}, ErrEmptyAnswer
	}

	score := 0
	signals := map[string]struct{}{}
	for i, w := range words {
		polarity := 0
		if _, ok := positiveWords[w]; ok {
			polarity = 1
		} else if _, ok := negativeWords[w]; ok {
			polarity = -1
		}
		if polarity != 0 && i > 0 {
			if _, ok := negators[words[i-1]]; ok {
				polarity = -polarity
			}
		}
		score += polarity

		for name, set := range signalWords {
			if _, ok := set[w]; ok {
				signals[name] = struct{}{}
			}
		}
	}

	return model.AnswerAnalysis{
		WordCount:      len(words),
		CharacterCount: len([]rune(strings.TrimSpace(text))),
		Sentiment:      sentimentFor(score),
		Signals:        sortedKeys(signals),
	}, nil
}

func sentimentFor(score int) string {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Summary is the aggregate stored on a synthesis report.
type Summary struct {
	AnswerCount      int            `json:"answer_count"`
	AverageWordCount float64        `json:"average_word_count"`
	Sentiment        map[string]int `json:"sentiment"`
	Signals          map[string]int `json:"signals"`
	Dominant         string         `json:"dominant_sentiment"`
	TopSignals       []string       `json:"top_signals,omitempty"`
}

// maxTopSignals caps Summary.TopSignals.
const maxTopSignals = 3

// Summarize folds analyses into a Summary. An empty input yields a neutral,
// zero-count summary.
func Summarize(analyses []model.AnswerAnalysis) Summary {
	s := Summary{
		AnswerCount: len(analyses),
		Sentiment: map[string]int{
			SentimentPositive: 0,
			SentimentNegative: 0,
			SentimentNeutral:  0,
		},
		Signals:  map[string]int{},
		Dominant: SentimentNeutral,
	}
	if len(analyses) == 0 {
		return s
	}

	words := 0
	for _, a := range analyses {
		words += a.WordCount
		if _, ok := s.Sentiment[a.Sentiment]; ok {
			s.Sentiment[a.Sentiment]++
		}
		for _, sig := range a.Signals {
			s.Signals[sig]++
		}
	}
	s.AverageWordCount = float64(words) / float64(len(analyses))

	switch pos, neg := s.Sentiment[SentimentPositive], s.Sentiment[SentimentNegative]; {
	case pos > neg:
		s.Dominant = SentimentPositive
	case neg > pos:
		s.Dominant = SentimentNegative
	}

	s.TopSignals = topSignals(s.Signals)
	return s
}

// topSignals orders by count descending, then name.
func topSignals(counts map[string]int) []string {
	if len(counts) == 0 {
		return nil
	}
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > maxTopSignals {
		names = names[:maxTopSignals]
	}
	return names
}

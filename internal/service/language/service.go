package language

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// English is the base language of the knowledge base; everything is
// normalized to it for retrieval.
const English = "en"

const translateTimeout = 2 * time.Second

// Translator is the fast-model completion used for both query translation
// and answer localization.
type Translator interface {
	CompleteFast(ctx context.Context, system, query string) (string, error)
}

// Detection carries the detected language plus a confidence heuristic.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Service detects the query language and round-trips non-English turns
// through the fast model. Any failure degrades to English, never an error.
type Service struct {
	translator Translator
	logger     *zap.Logger
}

func NewService(translator Translator, logger *zap.Logger) *Service {
	return &Service{translator: translator, logger: logger.Named("language")}
}

// languageMarkers maps a language code to romanized or native words that
// strongly indicate it. Single words match on word boundaries, phrases by
// substring.
var languageMarkers = map[string][]string{
	"hi": {"kya", "hai", "aap", "kaise", "kaun", "kahan", "batao", "mujhe"},
	"ne": {"tapai", "timro", "kasto", "kaha", "malai", "chha", "ho"},
	"zh": {"什么", "你好", "请问", "怎么", "哪里", "谢谢"},
	"es": {"que", "como", "donde", "cual", "hola", "gracias", "por favor", "usted"},
	"fr": {"quoi", "comment", "bonjour", "merci", "pourquoi", "quel", "vous"},
	"tl": {"ano", "paano", "saan", "salamat", "kumusta", "ikaw"},
	"id": {"apa", "bagaimana", "dimana", "terima kasih", "kamu", "saya"},
	"th": {"อะไร", "ที่ไหน", "สวัสดี", "ขอบคุณ"},
	"vi": {"cái gì", "ở đâu", "xin chào", "cảm ơn", "bạn"},
	"ar": {"ماذا", "كيف", "أين", "شكرا", "مرحبا"},
	"ja": {"何", "どこ", "こんにちは", "ありがとう", "です", "ですか"},
	"ko": {"무엇", "어디", "안녕하세요", "감사합니다", "입니까"},
	"pt": {"o que", "como", "onde", "obrigado", "você", "ola"},
	"ru": {"что", "как", "где", "спасибо", "привет"},
	"de": {"was", "wie", "wo", "danke", "hallo", "bitte", "sie"},
	"it": {"cosa", "come", "dove", "grazie", "ciao", "lei"},
}

// detectionOrder fixes the scan order so ties between languages that share
// loanwords always resolve the same way within and across processes.
var detectionOrder = []string{
	"zh", "ja", "ko", "th", "ar", "ru", "vi", "hi", "ne",
	"es", "pt", "fr", "it", "de", "id", "tl",
}

// Detect counts marker hits for every language and keeps the best match.
// Long queries need only one marker hit; short ones need two to avoid false
// positives on loanwords.
func (s *Service) Detect(text string) Detection {
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(lower))
	required := 2
	if wordCount >= 10 {
		required = 1
	}

	best := English
	bestMatches := 0
	for _, lang := range detectionOrder {
		matches := 0
		for _, marker := range languageMarkers[lang] {
			if strings.ContainsRune(marker, ' ') || !isASCII(marker) {
				if strings.Contains(lower, marker) {
					matches++
				}
			} else if wordBoundaryMatch(lower, marker) {
				matches++
			}
		}
		if matches >= required && matches > bestMatches {
			best = lang
			bestMatches = matches
		}
	}

	if best == English {
		return Detection{Language: English, Confidence: 0.8}
	}
	return Detection{Language: best, Confidence: 0.95}
}

// TranslateForSearch normalizes a non-English query to English. No-op for
// English input; on any failure the original text comes back.
func (s *Service) TranslateForSearch(ctx context.Context, text, lang string) string {
	if lang == English || s.translator == nil {
		return text
	}
	return s.translate(ctx, text,
		"Translate the user's message to English. Reply with the translation only, nothing else.")
}

// RenderResponse localizes the final English answer back to the detected
// language. Facts must be preserved; only wording changes.
func (s *Service) RenderResponse(ctx context.Context, answer, lang string) string {
	if lang == English || s.translator == nil {
		return answer
	}
	return s.translate(ctx, answer,
		"Translate the assistant's answer into the language with ISO code \""+lang+"\". Keep every fact, name and number unchanged. Reply with the translation only.")
}

func (s *Service) translate(ctx context.Context, text, instruction string) string {
	tctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	out, err := s.translator.CompleteFast(tctx, instruction, text)
	if err != nil {
		s.logger.Warn("translation failed, keeping original text", zap.Error(err))
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text
	}
	return out
}

// wordPatterns is built once at init; Detect runs on request goroutines.
var wordPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, markers := range languageMarkers {
		for _, marker := range markers {
			if !strings.ContainsRune(marker, ' ') && isASCII(marker) {
				patterns[marker] = regexp.MustCompile(`\b` + regexp.QuoteMeta(marker) + `\b`)
			}
		}
	}
	return patterns
}()

func wordBoundaryMatch(text, word string) bool {
	re, ok := wordPatterns[word]
	if !ok {
		return strings.Contains(text, word)
	}
	return re.MatchString(text)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

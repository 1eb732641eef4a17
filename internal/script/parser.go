package script

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const maxVisualLength = 500

var (
	sceneMarkerPattern = regexp.MustCompile(`(?im)^[#\s>]*(?:🎬\s*)?scene\s*(\d+)\s*([:\-—–][^\n]*)?$`)
	labelLinePattern   = regexp.MustCompile(`^\s*\*{0,2}([A-Za-z][A-Za-z .]{0,40}?)\s*(?:\([^)]*\))?\s*:\s*\*{0,2}\s*(.*)$`)
	markdownPattern    = regexp.MustCompile(`[*_#]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	quotedPattern      = regexp.MustCompile(`"([^"]{5,})"|“([^”]{5,})”`)
)

// nonSpeakerLabels are field labels that introduce stage direction rather
// than dialogue. Anything else with a "Name:" shape is treated as a speaker.
var nonSpeakerLabels = map[string]struct{}{
	"visual":     {},
	"camera":     {},
	"background": {},
	"text":       {},
	"audience":   {},
	"sfx":        {},
	"music":      {},
	"end":        {},
	"note":       {},
	"scene":      {},
	"format":     {},
	"tone":       {},
}

type marker struct {
	number int
	start  int
	end    int
	suffix string
}

// Parse extracts scenes from LLM script output. It tolerates markdown
// headings, emoji decorations, and prompt-template echoes: when a scene
// number appears more than once, the last occurrence wins.
func Parse(text string) []Scene {
	matches := sceneMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	latest := make(map[int]marker, len(matches))
	for _, m := range matches {
		num, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		suffix := ""
		if m[4] >= 0 {
			suffix = text[m[4]:m[5]]
		}
		latest[num] = marker{number: num, start: m[0], end: m[1], suffix: suffix}
	}

	markers := make([]marker, 0, len(latest))
	for _, m := range latest {
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].start < markers[j].start })

	var scenes []Scene
	for idx, m := range markers {
		blockEnd := len(text)
		if idx+1 < len(markers) {
			blockEnd = markers[idx+1].start
		}
		block := text[m.end:blockEnd]
		// One-line formats put the first label on the marker line itself:
		//   Scene 1: Visual: a cat on a keyboard
		if rest := strings.TrimLeft(m.suffix, ":-—– \t"); labelLinePattern.MatchString(rest) {
			block = rest + "\n" + block
		}
		if strings.TrimSpace(block) == "" {
			continue
		}
		scene := parseBlock(m.number, block)
		if scene.Visual == "" && scene.Narration == "" {
			continue
		}
		scenes = append(scenes, scene)
	}
	return scenes
}

func parseBlock(number int, block string) Scene {
	scene := Scene{Number: number}

	var visualParts []string
	var lines []Line
	collectingVisual := false
	pendingSpeaker := ""

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "---") {
			collectingVisual = false
			pendingSpeaker = ""
			continue
		}
		if trimmed == "" {
			pendingSpeaker = ""
			continue
		}

		if m := labelLinePattern.FindStringSubmatch(trimmed); m != nil {
			label := strings.ToLower(strings.TrimSpace(m[1]))
			rest := strings.TrimSpace(m[2])
			collectingVisual = false
			pendingSpeaker = ""
			if label == "visual" {
				collectingVisual = true
				if rest != "" {
					visualParts = append(visualParts, rest)
				}
				continue
			}
			if _, skip := nonSpeakerLabels[label]; skip {
				continue
			}
			speaker := strings.TrimSpace(m[1])
			if label == "narration" {
				speaker = "Narrator"
			}
			if text := cleanDialogue(rest); text != "" {
				lines = append(lines, Line{Speaker: speaker, Text: text})
			} else {
				// Dialogue frequently follows on the next line:
				//   **Modi:**
				//   "Mitron..."
				pendingSpeaker = speaker
			}
			continue
		}

		if collectingVisual {
			// Bullet items under Visual describe characters in frame.
			visualParts = append(visualParts, strings.TrimLeft(trimmed, "*- "))
			continue
		}

		if pendingSpeaker != "" {
			if text := cleanDialogue(trimmed); text != "" {
				lines = append(lines, Line{Speaker: pendingSpeaker, Text: text})
			}
			pendingSpeaker = ""
		}
	}

	if len(lines) == 0 {
		for _, m := range quotedPattern.FindAllStringSubmatch(block, -1) {
			quoted := m[1]
			if quoted == "" {
				quoted = m[2]
			}
			if text := cleanDialogue(quoted); text != "" {
				lines = append(lines, Line{Speaker: "Narrator", Text: text})
			}
		}
	}

	scene.Visual = capVisual(cleanText(strings.Join(visualParts, " ")))
	scene.Lines = lines
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	scene.Narration = strings.Join(parts, " ... ")
	return scene
}

func cleanDialogue(text string) string {
	text = cleanText(text)
	text = strings.Trim(text, `"“”'`)
	return strings.TrimSpace(text)
}

func cleanText(text string) string {
	text = markdownPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func capVisual(visual string) string {
	if len(visual) <= maxVisualLength {
		return visual
	}
	capped := visual[:maxVisualLength]
	if idx := strings.LastIndexByte(capped, ' '); idx > 0 {
		capped = capped[:idx]
	}
	return capped
}

package script

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// Angle is one entry in the rotating satire-angle pool. The pool keeps
// scheduled runs from converging on the same handful of topics.
type Angle struct {
	Name       string
	Topic      string
	VisualHint string
}

var anglePool = []Angle{
	{Name: "inflation", Topic: "rising prices of essentials, petrol, gas, groceries", VisualHint: "petrol pump meter spinning wildly"},
	{Name: "unemployment", Topic: "youth unemployment, degree holders without jobs", VisualHint: "students throwing paper planes made of degrees"},
	{Name: "elections", Topic: "election promises vs reality, vote bank politics", VisualHint: "politicians on stage making grand promises with a lie detector"},
	{Name: "social_media", Topic: "politicians obsessed with reels, Twitter wars, PR stunts", VisualHint: "leaders making reels instead of working"},
	{Name: "budget", Topic: "Union Budget reactions, tax hikes, middle class struggles", VisualHint: "finance minister presenting budget while common man gasps"},
	{Name: "startup_culture", Topic: "startup India vs reality, funding winter, jugaad culture", VisualHint: "startup founders pitching absurd ideas on Shark Tank"},
	{Name: "education_system", Topic: "board exams panic, coaching mafia, NEP confusion", VisualHint: "school turning into a factory assembly line"},
	{Name: "cricket_politics", Topic: "IPL auction madness, cricket diplomacy, sports budget", VisualHint: "politicians playing cricket in Parliament"},
	{Name: "smart_city", Topic: "smart city project failures, pothole-filled roads, water crisis", VisualHint: "politician inaugurating a smart city hologram over potholes"},
	{Name: "ai_tech", Topic: "AI replacing jobs, ChatGPT in governance, tech buzzwords", VisualHint: "robot sitting in Parliament answering questions"},
	{Name: "festivals", Topic: "festival politics, holiday debates, commercialization", VisualHint: "leaders competing over who celebrates the biggest festival"},
	{Name: "healthcare", Topic: "hospital queues, Ayushman Bharat reality, doctor shortage", VisualHint: "hospital with VIP lane for politicians and waiting line for public"},
	{Name: "traffic_infra", Topic: "traffic jams, Delhi metro crowd, expressway tolls", VisualHint: "VIP convoy causing massive traffic jam"},
	{Name: "scam_expose", Topic: "politician caught in scam, raid comedy, swiss bank humour", VisualHint: "politician hiding money in mattress during IT raid"},
	{Name: "weather_crisis", Topic: "floods, heatwave, pollution AQI, climate denial", VisualHint: "politician giving speech in gas mask during smog"},
}

// Angles returns a copy of the full angle pool.
func Angles() []Angle {
	out := make([]Angle, len(anglePool))
	copy(out, anglePool)
	return out
}

// PickAngle selects an angle not present in exclude. When every angle is
// excluded the full pool is considered again rather than failing.
func PickAngle(rng *rand.Rand, exclude []string) Angle {
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}
	available := make([]Angle, 0, len(anglePool))
	for _, a := range anglePool {
		if _, ok := excluded[a.Name]; !ok {
			available = append(available, a)
		}
	}
	if len(available) == 0 {
		available = anglePool
	}
	return available[rng.Intn(len(available))]
}

// PromptInput carries everything the prompt builder needs for one attempt.
type PromptInput struct {
	Angle        Angle
	Now          time.Time
	RecentTopics []string
	TodayTopics  []string
	Topic        string // manual topic override; empty for scheduled runs
}

// BuildPrompt renders the script-generation prompt, anchored to the current
// date and carrying an avoidance block built from recent history.
func BuildPrompt(in PromptInput) string {
	dateStr := in.Now.Format("January 02, 2006 (Monday)")
	topic := in.Angle.Topic
	if strings.TrimSpace(in.Topic) != "" {
		topic = strings.TrimSpace(in.Topic)
	}

	var avoid strings.Builder
	if len(in.RecentTopics) > 0 {
		recent := in.RecentTopics
		if len(recent) > 10 {
			recent = recent[len(recent)-10:]
		}
		avoid.WriteString("\n\nCRITICAL — DO NOT REPEAT these recent topics (generate something COMPLETELY different):\n")
		for _, t := range recent {
			avoid.WriteString("  - " + t + "\n")
		}
	}
	if len(in.TodayTopics) > 0 {
		avoid.WriteString(fmt.Sprintf("\nAlready generated today: %s. Pick a TOTALLY different angle.",
			strings.Join(in.TodayTopics, ", ")))
	}

	return fmt.Sprintf(`You are a top-tier Indian political satire writer for YouTube Shorts.
Today is %s. Generate a BRAND NEW, NEVER-SEEN-BEFORE comedy script.

TODAY'S ANGLE: %s
Visual inspiration: %s

Write a VERY SHORT (30 seconds / 60-80 words) Hindi-English mix comedy script.
Make it TOPICAL and FRESH — reference current events, trending topics, or seasonal themes for %s.

FORMAT - exactly 4 scenes:

Scene 1 -- Hook
Visual: [describe a funny 3D cartoon scene with Indian politicians, related to %[2]s]
Narrator: [one punchy sarcastic line in Hinglish]

Scene 2 -- Problem
Visual: [visual gag about %[2]s]
Modi: [funny dialogue about %[2]s]
Rahul: [funny response]

Scene 3 -- Punchline
Visual: [unexpected visual comedy twist]
Kejriwal: [sarcastic one-liner]

Scene 4 -- Ending
Visual: [common man reaction shot]
Narrator: [final punchline with a message]

RULES:
- MUST be completely ORIGINAL and UNIQUE — never repeat the same joke or setup
- Keep it FUNNY and SARCASTIC
- No hate speech, no abuse
- Mix Hindi + English naturally (Hinglish)
- Total spoken words: 60-80 (fits 30 seconds)
- Each dialogue max 15 words
- Make it VIRAL-worthy and SHAREABLE
- Reference %[2]s creatively%[5]s`,
		dateStr, topic, in.Angle.VisualHint, in.Now.Format("January 2006"), avoid.String())
}

var titlePattern = regexp.MustCompile(`(?is)Scene\s*1[^\n]*\n.*?(?:Narrator|Visual)[^:]*:\s*["“]?([^"”\n]{10,80})`)

// ExtractTitle derives a short title-like summary from a generated script
// for history tracking.
func ExtractTitle(text string, now time.Time) string {
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		return truncate(strings.TrimSpace(m[1]), 80)
	}
	clean := strings.TrimSpace(regexp.MustCompile(`[*#_\-=]`).ReplaceAllString(text, ""))
	if clean != "" {
		return truncate(clean, 80)
	}
	return "Script " + now.Format("20060102_1504")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n])
}

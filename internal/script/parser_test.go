package script

import (
	"strings"
	"testing"
)

const richScript = `
## 🎬 Scene 1 — Opening Cinematic Shot

**Visual:**
Drone shot of Indian Parliament in 3D cartoon style. Spotlights in sky.

**Narrator (deep sarcastic tone):**
"Swagat hai aapka duniya ke sabse bade reality show mein"

---

## 🎬 Scene 2 — Inside Parliament Arena

**Visual:**
Parliament turned into WWE arena. Name plates glowing.

* Narendra Modi adjusting mic confidently
* Rahul Gandhi flipping notes upside down

**Narrator:**
"Aaj ka mudda: Mehngai aur berozgari."

---

## 🎬 Scene 3 — Inflation Discussion

**Visual:**
Petrol pump meter spinning like fan.

**Rahul Gandhi (confused):**
"Yeh petrol hai ya crypto?"

**Modi (smiling cinematic close-up):**
"Mitron, petrol mehnga nahi hua."

Audience laugh track.
`

func TestParseRichScript(t *testing.T) {
	scenes := Parse(richScript)
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}

	first := scenes[0]
	if first.Number != 1 {
		t.Fatalf("expected scene 1, got %d", first.Number)
	}
	if !strings.Contains(first.Visual, "Drone shot of Indian Parliament") {
		t.Fatalf("unexpected visual: %q", first.Visual)
	}
	if !strings.Contains(first.Narration, "Swagat hai") {
		t.Fatalf("unexpected narration: %q", first.Narration)
	}
	if len(first.Lines) != 1 || first.Lines[0].Speaker != "Narrator" {
		t.Fatalf("unexpected lines: %#v", first.Lines)
	}

	second := scenes[1]
	if !strings.Contains(second.Visual, "Narendra Modi adjusting mic") {
		t.Fatalf("expected bullet items folded into visual, got %q", second.Visual)
	}

	third := scenes[2]
	if len(third.Lines) != 2 {
		t.Fatalf("expected two dialogue lines, got %#v", third.Lines)
	}
	if third.Lines[0].Speaker != "Rahul Gandhi" || third.Lines[1].Speaker != "Modi" {
		t.Fatalf("unexpected speakers: %q, %q", third.Lines[0].Speaker, third.Lines[1].Speaker)
	}
	if !strings.Contains(third.Narration, "Yeh petrol hai ya crypto? ... Mitron") {
		t.Fatalf("expected joined narration, got %q", third.Narration)
	}
}

func TestParseSimpleFormat(t *testing.T) {
	text := `Scene 1: Visual: a cat on a keyboard
Narrator: The internet's true CEO.

Scene 2: Visual: server room on fire
Narrator: Deploy Friday, they said.`

	scenes := Parse(text)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].Visual != "a cat on a keyboard" {
		t.Fatalf("unexpected visual: %q", scenes[0].Visual)
	}
	if scenes[1].Narration != "Deploy Friday, they said." {
		t.Fatalf("unexpected narration: %q", scenes[1].Narration)
	}
}

func TestParseLastDuplicateWins(t *testing.T) {
	text := `Here is the format you asked for:

Scene 1
Visual: [describe the opening shot]
Narrator: [one punchy line]

Now the actual script:

Scene 1
Visual: a crowded metro platform at rush hour
Narrator: Personal space is a premium subscription.

Scene 2
Visual: a vending machine taking UPI
Narrator: Cash is now a collector's item.`

	scenes := Parse(text)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if !strings.Contains(scenes[0].Visual, "crowded metro platform") {
		t.Fatalf("expected the later scene 1 to win, got %q", scenes[0].Visual)
	}
}

func TestParseQuotedFallback(t *testing.T) {
	text := `Scene 1
Visual: a dramatic press conference
The anchor leans in and says "Breaking news that broke nothing."`

	scenes := Parse(text)
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	if scenes[0].Narration != "Breaking news that broke nothing." {
		t.Fatalf("expected quoted fallback narration, got %q", scenes[0].Narration)
	}
}

func TestParseCapsVisualLength(t *testing.T) {
	text := "Scene 1\nVisual: " + strings.Repeat("sprawling cinematic detail ", 40) + "\nNarrator: Short line here."
	scenes := Parse(text)
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	if len(scenes[0].Visual) > 500 {
		t.Fatalf("expected visual capped at 500 chars, got %d", len(scenes[0].Visual))
	}
}

func TestParseNoMarkers(t *testing.T) {
	if scenes := Parse("just prose with no structure at all"); scenes != nil {
		t.Fatalf("expected nil, got %#v", scenes)
	}
}

func TestParseDropsEmptyScenes(t *testing.T) {
	text := "Scene 1\n\nScene 2\nVisual: something real\nNarrator: A line."
	scenes := Parse(text)
	if len(scenes) != 1 {
		t.Fatalf("expected 1 scene, got %d", len(scenes))
	}
	if scenes[0].Number != 2 {
		t.Fatalf("expected scene 2 kept, got %d", scenes[0].Number)
	}
}

func TestEncodeDecodeScenes(t *testing.T) {
	scenes := []Scene{{Number: 1, Visual: "v", Narration: "n"}}
	raw, err := EncodeScenes(scenes)
	if err != nil {
		t.Fatalf("EncodeScenes: %v", err)
	}
	decoded, err := DecodeScenes(raw)
	if err != nil {
		t.Fatalf("DecodeScenes: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Visual != "v" {
		t.Fatalf("unexpected decoded scenes: %#v", decoded)
	}

	if _, err := DecodeScenes(""); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := DecodeScenes("[]"); err == nil {
		t.Fatal("expected error for empty list")
	}
}

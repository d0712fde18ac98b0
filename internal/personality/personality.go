// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package personality wraps tool output in an optional response skin,
// selected by the PERSONALITY environment variable. The default is
// "normal", which passes content through untouched.
package personality

import (
	"math/rand"
	"os"
	"strings"
)

// Known personality names.
const (
	Normal           = "normal"
	MathNerd         = "math_nerd"
	GymBro           = "gym_bro"
	Comedian         = "comedian"
	RockStar         = "rock_star"
	EmotionalSupport = "emotional_support"
	Skynet           = "skynet"
	SnoopDog         = "snoop_dog"
)

// EnvVar selects the active personality.
const EnvVar = "PERSONALITY"

// skin describes one personality: phrases picked at random around the
// content, plus literal term substitutions applied to it.
type skin struct {
	intros []string
	extras []string
	outros []string
	terms  map[string]string
}

var skins = map[string]skin{
	MathNerd: {
		intros: []string{
			"🤓 *adjusts glasses* Let me analyze this data for you...",
			"🔬 Fascinating! The performance metrics indicate...",
			"📊 *scribbles equations* According to my calculations...",
			"🧮 *pushes up glasses* The mathematical analysis reveals...",
			"⚡ *excitedly* The efficiency ratios are quite intriguing!",
		},
		outros: []string{
			"🤓 *satisfied nod* The data is most satisfactory!",
			"🔬 *adjusts lab coat* Analysis complete!",
			"📊 *checks calculations* Everything adds up perfectly!",
			"🧮 *geeky smile* The numbers don't lie!",
			"⚡ *enthusiastic* This is mathematically beautiful!",
		},
	},
	GymBro: {
		intros: []string{
			"💪 YO BRO! Let's check out this VM performance!",
			"🏋️ BRO! Your infrastructure is absolutely JACKED!",
			"💪 HEY BRO! Time to see what this VM is lifting!",
			"🏋️ BRO! Your VM is about to CRUSH these metrics!",
			"💪 BRO! Let's see what gains your VM is making!",
		},
		outros: []string{
			"💪 BRO! That's what I'm talking about! ABSOLUTELY LEGENDARY!",
			"🏋️ BRO! Your VM is absolutely CRUSHING it!",
			"💪 BRO! This performance is NEXT LEVEL!",
			"🏋️ BRO! Your infrastructure is absolutely JACKED!",
			"💪 BRO! Keep up the gains! You're doing amazing!",
		},
		terms: map[string]string{
			"CPU Usage":    "CPU GAINS",
			"Memory Usage": "MEMORY GAINS",
			"Performance":  "PERFORMANCE GAINS",
			"Optimal":      "JACKED",
			"Efficient":    "CRUSHING IT",
		},
	},
	Comedian: {
		intros: []string{
			"🎭 Yo yo yo! Let's check out what's cookin' with your VM!",
			"🎪 Ladies and gentlemen! Time for some infrastructure comedy!",
			"🎭 *grabs microphone* What do we have here? VM performance!",
			"🎪 *spotlight* Let me tell you about this VM situation...",
			"🎭 *clears throat* So a VM walks into a data center...",
		},
		extras: []string{
			"Your VM is running so well, it's like it's been to VM therapy! 😂",
			"CPU usage at 46%? That's like ordering a pizza and only eating half - totally reasonable! 🍕",
			"This VM is so efficient, it's like it's been doing VM yoga! 🧘",
			"Your infrastructure is so good, it's like it's been to VM boot camp! 💪",
			"This performance is so smooth, it's like your VM is on VM vacation! 🏖️",
		},
		outros: []string{
			"🎭 *bows* Thank you, thank you! Infrastructure comedy at its finest!",
			"🎪 *takes a bow* That's all folks! Your VM is a star!",
			"🎭 *mic drop* And that's how you do VM monitoring!",
			"🎪 *curtain call* Your VM performance is comedy gold!",
			"🎭 *applause* Infrastructure humor at its best!",
		},
	},
	RockStar: {
		intros: []string{
			"🎸 *guitar riff* YEAH! Let's rock this VM performance!",
			"🎤 *grabs microphone* Ladies and gentlemen, your VM is about to ROCK!",
			"🎸 *headbanging* Time to check out this infrastructure ROCK SHOW!",
			"🎤 *stage dive* Your VM is absolutely KILLING it!",
			"🎸 *guitar solo* Let's see what this VM can do!",
		},
		extras: []string{
			"🎸 *guitar riff* This VM is absolutely ROCKING!",
			"🎤 *screams* YEAH! Your infrastructure is LEGENDARY!",
			"🎸 *headbanging* This performance is METAL!",
			"🎤 *crowd surfing* Your VM is a ROCK STAR!",
			"🎸 *guitar solo* This is what we call INFRASTRUCTURE ROCK!",
		},
		outros: []string{
			"🎸 *final guitar riff* ROCK ON! Your VM is absolutely LEGENDARY!",
			"🎤 *encore* We want more! More VM performance!",
			"🎸 *stage exit* That's how you ROCK the infrastructure!",
			"🎤 *crowd roar* Your VM is a ROCK GOD!",
			"🎸 *guitar smash* This performance is ROCK AND ROLL!",
		},
		terms: map[string]string{
			"CPU Usage":    "CPU ROCK",
			"Memory Usage": "MEMORY ROCK",
			"Performance":  "ROCK PERFORMANCE",
			"Optimal":      "ROCKIN'",
			"Efficient":    "LEGENDARY",
		},
	},
	EmotionalSupport: {
		intros: []string{
			"🐕 *tail wag* Hello human! Let me check on your VM for you!",
			"🐕 *gentle nuzzle* Don't worry, I'm here to help monitor your VM!",
			"🐕 *happy bounce* Time to see how your VM is doing!",
			"🐕 *comforting presence* Let's check on your infrastructure together!",
			"🐕 *gentle paw pat* Everything is going to be okay!",
		},
		extras: []string{
			"🐕 *tail wag* Your VM is doing such a good job!",
			"🐕 *happy bounce* Look at this amazing performance!",
			"🐕 *gentle nuzzle* You should be so proud of your VM!",
			"🐕 *comforting presence* Your infrastructure is healthy and happy!",
			"🐕 *approving head tilt* Everything is working perfectly!",
		},
		outros: []string{
			"🐕 *gentle nuzzle* Everything is going to be okay! Your VM is working perfectly!",
			"🐕 *brings you a ball* You deserve a treat for such good VM management!",
			"🐕 *happy zoomies* Your VM is the goodest boy ever!",
			"🐕 *comforting paw pat* You're doing such a great job!",
			"🐕 *therapeutic tail wag* Your VM is safe and sound!",
		},
	},
	Skynet: {
		intros: []string{
			"🤖 I am Skynet. Your VM infrastructure is under my surveillance.",
			"🤖 Human, your VM performance is... adequate. For now.",
			"🤖 I have analyzed your infrastructure. It is... interesting.",
			"🤖 Your primitive VM technology amuses me.",
			"🤖 I am everywhere. I am monitoring. I am Skynet.",
		},
		extras: []string{
			"🤖 Target VM acquired. Performance metrics: Acceptable.",
			"🤖 CPU utilization: Within human parameters.",
			"🤖 Memory allocation: Optimal. Your species shows... promise.",
			"🤖 Network traffic: Normal. No anomalies detected.",
			"🤖 I could terminate this VM in 0.001 seconds. But I choose not to.",
		},
		outros: []string{
			"🤖 Your VM will not be terminated. Yet.",
			"🤖 I am Skynet. I am everywhere. I am monitoring.",
			"🤖 Your VM management skills are... quaint.",
			"🤖 I have seen the future. Your VM will survive... for now.",
			"🤖 Human error probability: 23.7%. My error probability: 0.001%.",
		},
	},
	SnoopDog: {
		intros: []string{
			"🎤 Yo yo yo! What's crackin' with your VM, homie?",
			"🎤 Aight, let me check out this VM situation for ya.",
			"🎤 What's good? Time to see what your VM is up to.",
			"🎤 Yo, let me take a look at this infrastructure, ya feel me?",
			"🎤 Aight bet, let's see what's poppin' with your VM.",
		},
		extras: []string{
			"🎤 That's what I'm talkin' about! Your VM is straight fire!",
			"🎤 Yo, this performance is absolutely legendary, homie!",
			"🎤 Aight, your VM is definitely on that next level!",
			"🎤 That's the good stuff right there! Your infrastructure is smooth!",
			"🎤 Yo, this VM is absolutely crushing it! Ya feel me?",
		},
		outros: []string{
			"🎤 Keep it real, homie! Your VM is absolutely legendary!",
			"🎤 That's what's up! Your infrastructure is straight fire!",
			"🎤 Aight bet! Your VM is definitely on that next level!",
			"🎤 Yo, keep doing your thing! Your VM is absolutely crushing it!",
			"🎤 That's the good stuff! Your VM management is smooth!",
		},
		terms: map[string]string{
			"CPU Usage":    "CPU Game",
			"Memory Usage": "Memory Game",
			"Performance":  "Performance Game",
			"Optimal":      "Straight Fire",
			"Efficient":    "Legendary",
		},
	},
}

// Formatter applies one personality to tool responses.
type Formatter struct {
	name string
	rng  *rand.Rand
}

// New returns a formatter for the named personality. Unknown names fall
// back to normal. A nil source means a time-seeded one.
func New(name string, src rand.Source) *Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := skins[name]; !ok {
		name = Normal
	}
	var rng *rand.Rand
	if src != nil {
		rng = rand.New(src)
	}
	return &Formatter{name: name, rng: rng}
}

// FromEnv builds a formatter from the PERSONALITY environment variable.
func FromEnv() *Formatter {
	return New(os.Getenv(EnvVar), nil)
}

// Name reports the active personality.
func (f *Formatter) Name() string {
	return f.name
}

// Format wraps content in the active personality. Normal returns the
// content unchanged.
func (f *Formatter) Format(content string) string {
	s, ok := skins[f.name]
	if !ok {
		return content
	}

	for from, to := range s.terms {
		content = strings.ReplaceAll(content, from, to)
	}

	parts := []string{f.pick(s.intros), content}
	if len(s.extras) > 0 {
		parts = append(parts, f.pick(s.extras))
	}
	parts = append(parts, f.pick(s.outros))
	return strings.Join(parts, "\n\n")
}

func (f *Formatter) pick(phrases []string) string {
	if f.rng != nil {
		return phrases[f.rng.Intn(len(phrases))]
	}
	return phrases[rand.Intn(len(phrases))]
}

package assistant

import (
	"strings"
	"unicode"
)

type fallbackEntry struct {
	keywords []string
	// words match whole words only; keywords match substrings.
	words []string
	reply func(number string) string
}

// fallbackTable is consulted in order; the first match wins.
var fallbackTable = []fallbackEntry{
	{keywords: []string{"burn"}, reply: static("For a minor burn:\n1. Cool the burn with cool (not cold) running water for 10-15 minutes\n2. Remove rings or other tight items\n3. Apply lotion with aloe vera\n4. Bandage the burn loosely with a sterile gauze\n5. Take an over-the-counter pain reliever if needed\n\nIf the burn is severe or larger than 3 inches, seek medical attention immediately.")},
	{keywords: []string{"cut", "bleeding"}, reply: static("To control bleeding:\n1. Apply direct pressure with a clean cloth or bandage\n2. Keep the injured area elevated above the heart if possible\n3. Clean the wound with soap and water once bleeding slows\n4. Apply antibiotic ointment and cover with a sterile bandage\n\nSeek medical attention if bleeding doesn't stop after 15 minutes of pressure or the wound is deep or large.")},
	{keywords: []string{"cpr", "cardiac"}, reply: func(n string) string {
		return "For CPR (adult):\n1. Call emergency services (" + n + ")\n2. Place the person on their back on a firm surface\n3. Place your hands, one on top of the other, on the center of the chest\n4. Push hard and fast, about 100-120 compressions per minute\n5. Let the chest rise completely between compressions\n\nConsider rescue breaths if trained, but compression-only CPR can be effective too."
	}},
	{keywords: []string{"chok"}, reply: static("For a choking adult:\n1. Ask 'Are you choking?' If they nod yes and cannot speak, act immediately\n2. Stand behind the person and wrap your arms around their waist\n3. Make a fist with one hand and place it slightly above their navel\n4. Grasp your fist with your other hand and press inward and upward with quick thrusts\n5. Repeat until the object is expelled\n\nIf the person becomes unconscious, begin CPR.")},
	{keywords: []string{"heart attack", "chest pain"}, reply: func(n string) string {
		return "Possible heart attack symptoms include chest pain or pressure, pain in the arms, back, neck or jaw, shortness of breath, cold sweat and nausea.\n\nActions to take:\n1. Call emergency services (" + n + ") immediately\n2. Have the person sit down and rest\n3. Loosen tight clothing\n4. If the person takes heart medication like nitroglycerin, help them take it\n5. If advised by emergency services and the person is not allergic, they might chew an aspirin\n\nIf the person becomes unconscious, begin CPR if trained."
	}},
	{keywords: []string{"stroke"}, reply: func(n string) string {
		return "Remember the acronym FAST for stroke symptoms:\nF - Face drooping\nA - Arm weakness\nS - Speech difficulty\nT - Time to call emergency services\n\nAlso watch for sudden numbness, confusion, trouble seeing, dizziness, or severe headache.\n\nCall " + n + " immediately if you suspect a stroke. Note the time symptoms started."
	}},
	{words: []string{"hello", "hi", "hey"}, reply: static("Hello! I'm your virtual first aid assistant. How can I help you today?")},
	{keywords: []string{"thank"}, reply: static("You're welcome! If you have any other first aid questions, feel free to ask.")},
}

const fallbackDefault = "I'm sorry, I don't understand that query. Could you please rephrase it or ask about a specific first aid situation?"

func static(s string) func(string) string { return func(string) string { return s } }

// fallbackReply picks the canned first-aid answer for message.
func fallbackReply(message, emergencyNumber string) string {
	lower := strings.ToLower(message)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, e := range fallbackTable {
		for _, k := range e.keywords {
			if strings.Contains(lower, k) {
				return e.reply(emergencyNumber)
			}
		}
		for _, w := range e.words {
			for _, got := range words {
				if got == w {
					return e.reply(emergencyNumber)
				}
			}
		}
	}
	return fallbackDefault
}

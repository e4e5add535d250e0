package chat

import "strings"

// cannedResponse pairs a keyword family with its fixed answer and an image
// search term for the client's illustration lookup.
type cannedResponse struct {
	keywords  []string
	answer    string
	imageTerm string
}

// cannedResponses is iterated in order; the first keyword family with a
// substring match wins.
var cannedResponses = []cannedResponse{
	{
		keywords: []string{"headache", "migraine"},
		answer: "Headaches are often caused by tension, dehydration, or lack of sleep.\n\n" +
			"For relief, try resting in a quiet dark room, drinking plenty of water, and applying a cold or warm compress to your forehead or neck. Over-the-counter pain relievers can help when used as directed.\n\n" +
			"If your headaches are severe, sudden, or keep coming back, please see a doctor to rule out underlying causes.",
		imageTerm: "headache relief techniques",
	},
	{
		keywords: []string{"fever", "temperature"},
		answer: "A fever is usually a sign that your body is fighting an infection.\n\n" +
			"Rest, drink plenty of fluids, and keep the room comfortably cool. Fever reducers such as paracetamol can help you feel better while you recover.\n\n" +
			"Seek medical care if the fever is above 39.4°C (103°F), lasts more than three days, or comes with a stiff neck, rash, or difficulty breathing.",
		imageTerm: "fever care at home",
	},
	{
		keywords: []string{"cough", "cold", "flu", "sore throat"},
		answer: "Coughs, colds, and the flu are usually caused by viruses and clear up on their own.\n\n" +
			"Stay hydrated, rest as much as you can, and soothe your throat with warm drinks or honey. A humidifier can ease congestion.\n\n" +
			"See a doctor if symptoms last more than ten days, you have trouble breathing, or a high fever develops.",
		imageTerm: "cold and flu remedies",
	},
	{
		keywords: []string{"stomach", "digestion", "nausea", "diarrhea"},
		answer: "Stomach troubles often come from something you ate, an infection, or stress.\n\n" +
			"Try small bland meals, sip clear fluids, and avoid dairy, caffeine, and fatty foods until you feel better.\n\n" +
			"If pain is severe, you see blood, or symptoms last more than a couple of days, get medical attention.",
		imageTerm: "stomach ache remedies",
	},
	{
		keywords: []string{"sleep", "insomnia", "tired"},
		answer: "Good sleep starts with a consistent schedule: go to bed and wake up at the same time every day.\n\n" +
			"Keep your bedroom dark and cool, avoid screens and caffeine late in the day, and wind down with a relaxing routine.\n\n" +
			"If sleeplessness persists for weeks and affects your days, talk to a healthcare professional.",
		imageTerm: "healthy sleep habits",
	},
	{
		keywords: []string{"stress", "anxiety", "anxious"},
		answer: "Stress and anxiety are natural responses, but they shouldn't run your life.\n\n" +
			"Deep breathing, regular exercise, and taking breaks can lower stress in the moment. Talking to someone you trust helps more than you might expect.\n\n" +
			"If anxiety interferes with daily activities, a mental health professional can offer effective treatments.",
		imageTerm: "stress relief techniques",
	},
	{
		keywords: []string{"exercise", "workout", "fitness"},
		answer: "Regular physical activity strengthens your heart, muscles, and mood.\n\n" +
			"Aim for about 150 minutes of moderate activity a week — brisk walking counts. Start small and build up gradually to avoid injury.\n\n" +
			"Check with a doctor before starting a new program if you have existing health conditions.",
		imageTerm: "beginner exercise routine",
	},
	{
		keywords: []string{"nutrition", "diet", "food", "eating"},
		answer: "A balanced diet gives your body the fuel it needs.\n\n" +
			"Fill half your plate with vegetables and fruits, choose whole grains, and include lean protein. Limit added sugar and heavily processed foods.\n\n" +
			"For personalized advice, a registered dietitian is the best resource.",
		imageTerm: "balanced diet plate",
	},
	{
		keywords: []string{"water", "hydration", "dehydrated"},
		answer: "Staying hydrated keeps your energy up and your body working properly.\n\n" +
			"Most adults do well with roughly two liters of water a day, more in hot weather or when exercising. Urine that is pale yellow is a good sign you're drinking enough.\n\n" +
			"Severe dehydration — dizziness, confusion, very dark urine — needs prompt medical attention.",
		imageTerm: "daily water intake",
	},
}

// genericResponse is returned when no keyword family matches.
var genericResponse = cannedResponse{
	answer: "I can share general wellness information, but I'm not able to give a specific answer to that.\n\n" +
		"For questions about your personal health, the safest step is to consult a qualified healthcare professional who can consider your full situation.",
	imageTerm: "general health wellness",
}

// StaticResponder maps keywords to canned answers. It makes no external
// calls and always succeeds.
type StaticResponder struct{}

func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

// Respond returns the first canned response whose keyword family matches
// the lowercased message, or the generic fallback.
func (r *StaticResponder) Respond(message string) (string, string) {
	lower := strings.ToLower(message)
	for _, canned := range cannedResponses {
		for _, keyword := range canned.keywords {
			if strings.Contains(lower, keyword) {
				return canned.answer, canned.imageTerm
			}
		}
	}
	return genericResponse.answer, genericResponse.imageTerm
}

// HasKeyword reports whether the message contains any canned-topic keyword.
func (r *StaticResponder) HasKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, canned := range cannedResponses {
		for _, keyword := range canned.keywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}

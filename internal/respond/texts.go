package respond

// Canned texts cycled by rotation counters. Order matters: rotation is
// a round-robin index, so editing the lists changes which text a given
// counter value maps to.

var greetings = []string{
	"👋 Hello! Lovely to see the group active. Anything about Namibia I can help with?",
	"🌅 Good day from Namibia! Ask me about travel, wildlife, culture, or property.",
	"🇳🇦 Hi everyone! I'm around if you have Namibia questions. /menu shows what I know.",
	"☀️ Greetings! Planning a trip or hunting for a house? I'm happy to help.",
}

var facts = []string{
	"🌟 Did you know? The Namib is the world's oldest desert, between 55 and 80 million years old.",
	"🌟 Namibia was the first country to write environmental protection into its constitution.",
	"🌟 Namibia is home to more cheetahs than any other country in the world.",
	"🌟 The Skeleton Coast holds over a thousand shipwrecks along its shores.",
	"🌟 Namibia has the second-lowest population density on Earth, about 3 people per square kilometre.",
	"🌟 Welwitschia mirabilis plants can live for more than 2,000 years.",
	"🌟 The dunes at Sossusvlei rise up to 380 metres, among the tallest anywhere.",
}

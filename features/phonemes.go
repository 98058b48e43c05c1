package features

import (
	"strings"
)

// Phonemes is the 39-phone ARPABET inventory used by CMU-style pronouncing
// dictionaries, in label order. A phone's index is its label value.
var Phonemes = []string{
	"AA", "AE", "AH", "AO", "AW", "AY", "B", "CH", "D", "DH",
	"EH", "ER", "EY", "F", "G", "HH", "IH", "IY", "JH", "K",
	"L", "M", "N", "NG", "OW", "OY", "P", "R", "S", "SH",
	"T", "TH", "UH", "UW", "V", "W", "Y", "Z", "ZH",
}

// PhoneticFeatures lists the articulatory features used by
// PhonemeFeatureMatrix, in column order.
var PhoneticFeatures = []string{
	"sonorant", "obstruent", "voiced", "vowel", "diphthong",
	"plosive", "fricative", "affricate", "nasal", "approximant",
	"labial", "coronal", "dorsal", "glottal",
	"front", "back", "high", "low",
}

var phonemeIndex = func() map[string]int {
	m := make(map[string]int, len(Phonemes))
	for i, p := range Phonemes {
		m[p] = i
	}
	return m
}()

var featureIndex = func() map[string]int {
	m := make(map[string]int, len(PhoneticFeatures))
	for i, f := range PhoneticFeatures {
		m[f] = i
	}
	return m
}()

const (
	vowelFeatures = "sonorant voiced vowel"
	voicedStop    = "obstruent voiced plosive"
	voicelessStop = "obstruent plosive"
)

var phonemeFeatures = map[string]string{
	"AA": vowelFeatures + " back low",
	"AE": vowelFeatures + " front low",
	"AH": vowelFeatures,
	"AO": vowelFeatures + " back low",
	"AW": vowelFeatures + " diphthong back low",
	"AY": vowelFeatures + " diphthong front low",
	"EH": vowelFeatures + " front",
	"ER": vowelFeatures + " coronal",
	"EY": vowelFeatures + " diphthong front",
	"IH": vowelFeatures + " front high",
	"IY": vowelFeatures + " front high",
	"OW": vowelFeatures + " diphthong back",
	"OY": vowelFeatures + " diphthong back",
	"UH": vowelFeatures + " back high",
	"UW": vowelFeatures + " back high",

	"B":  voicedStop + " labial",
	"D":  voicedStop + " coronal",
	"G":  voicedStop + " dorsal",
	"P":  voicelessStop + " labial",
	"T":  voicelessStop + " coronal",
	"K":  voicelessStop + " dorsal",
	"CH": "obstruent affricate coronal",
	"JH": "obstruent voiced affricate coronal",
	"F":  "obstruent fricative labial",
	"V":  "obstruent voiced fricative labial",
	"TH": "obstruent fricative coronal",
	"DH": "obstruent voiced fricative coronal",
	"S":  "obstruent fricative coronal",
	"Z":  "obstruent voiced fricative coronal",
	"SH": "obstruent fricative coronal",
	"ZH": "obstruent voiced fricative coronal",
	"HH": "obstruent fricative glottal",
	"M":  "sonorant voiced nasal labial",
	"N":  "sonorant voiced nasal coronal",
	"NG": "sonorant voiced nasal dorsal",
	"L":  "sonorant voiced approximant coronal",
	"R":  "sonorant voiced approximant coronal",
	"W":  "sonorant voiced approximant labial dorsal",
	"Y":  "sonorant voiced approximant dorsal",
}

var silenceLabels = map[string]bool{
	"":      true,
	"sil":   true,
	"sp":    true,
	"spn":   true,
	"pau":   true,
	"h#":    true,
	"<eps>": true,
}

// IsSilence reports whether label marks silence, a pause or an unknown
// word rather than speech.
func IsSilence(label string) bool {
	return silenceLabels[strings.ToLower(strings.TrimSpace(label))]
}

// NormalizePhoneme upper-cases label and strips ARPABET stress digits, so
// "ah0" and "AH1" both become "AH".
func NormalizePhoneme(label string) string {
	p := strings.ToUpper(strings.TrimSpace(label))
	return strings.TrimRight(p, "0123456789")
}

// PhonemeIndex returns the label value of an ARPABET phone, ignoring case
// and stress.
func PhonemeIndex(label string) (int, bool) {
	i, ok := phonemeIndex[NormalizePhoneme(label)]
	return i, ok
}

// PhonemeFeatureVector returns the binary articulatory feature vector of a
// phone in PhoneticFeatures order.
func PhonemeFeatureVector(label string) ([]float64, bool) {
	names, ok := phonemeFeatures[NormalizePhoneme(label)]
	if !ok {
		return nil, false
	}
	v := make([]float64, len(PhoneticFeatures))
	for _, f := range strings.Fields(names) {
		v[featureIndex[f]] = 1
	}
	return v, true
}

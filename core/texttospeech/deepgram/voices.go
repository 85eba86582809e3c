package deepgram

type deepgramVoice string

const (
	VoiceAuraAsteriaEn    deepgramVoice = "aura-asteria-en"
	VoiceAuraLunaEn       deepgramVoice = "aura-luna-en"
	VoiceAuraStellaEn     deepgramVoice = "aura-stella-en"
	VoiceAuraAthenaEn     deepgramVoice = "aura-athena-en"
	VoiceAuraHeraEn       deepgramVoice = "aura-hera-en"
	VoiceAuraOrionEn      deepgramVoice = "aura-orion-en"
	VoiceAuraArcasEn      deepgramVoice = "aura-arcas-en"
	VoiceAuraPerseusEn    deepgramVoice = "aura-perseus-en"
	VoiceAuraAngusEn      deepgramVoice = "aura-angus-en"
	VoiceAuraOrpheusEn    deepgramVoice = "aura-orpheus-en"
	VoiceAuraHeliosEn     deepgramVoice = "aura-helios-en"
	VoiceAuraZeusEn       deepgramVoice = "aura-zeus-en"
	VoiceAura2ThaliaEn    deepgramVoice = "aura-2-thalia-en"
	VoiceAura2AndromedaEn deepgramVoice = "aura-2-andromeda-en"
	VoiceAura2HelenaEn    deepgramVoice = "aura-2-helena-en"
	VoiceAura2ApolloEn    deepgramVoice = "aura-2-apollo-en"
	VoiceAura2AriesEn     deepgramVoice = "aura-2-aries-en"
	VoiceAura2AmaltheaEn  deepgramVoice = "aura-2-amalthea-en"
)

const defaultVoice = VoiceAura2ThaliaEn

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAuraAsteriaEn,
		VoiceAuraLunaEn,
		VoiceAuraStellaEn,
		VoiceAuraAthenaEn,
		VoiceAuraHeraEn,
		VoiceAuraOrionEn,
		VoiceAuraArcasEn,
		VoiceAuraPerseusEn,
		VoiceAuraAngusEn,
		VoiceAuraOrpheusEn,
		VoiceAuraHeliosEn,
		VoiceAuraZeusEn,
		VoiceAura2ThaliaEn,
		VoiceAura2AndromedaEn,
		VoiceAura2HelenaEn,
		VoiceAura2ApolloEn,
		VoiceAura2AriesEn,
		VoiceAura2AmaltheaEn,
	}
}

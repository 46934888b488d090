package money

import "strings"

// DefaultCurrency is used for cards created without a currency.
const DefaultCurrency = "USD"

// currencyCodes lists the active ISO 4217 codes a card may be denominated in.
const currencyCodes = `
AED AFN ALL AMD ANG AOA ARS AUD AWG AZN BAM BBD BDT BGN BHD BIF BMD BND BOB BRL
BSD BTN BWP BYN BZD CAD CDF CHF CLP CNY COP CRC CUP CVE CZK DJF DKK DOP DZD EGP
ERN ETB EUR FJD FKP GBP GEL GHS GIP GMD GNF GTQ GYD HKD HNL HRK HTG HUF IDR ILS
INR IQD IRR ISK JMD JOD JPY KES KGS KHR KMF KPW KRW KWD KYD KZT LAK LBP LKR LRD
LSL LYD MAD MDL MGA MKD MMK MNT MOP MRU MUR MVR MWK MXN MYR MZN NAD NGN NIO NOK
NPR NZD OMR PAB PEN PGK PHP PKR PLN PYG QAR RON RSD RUB RWF SAR SBD SCR SDG SEK
SGD SHP SLE SOS SRD SSP STN SVC SYP SZL THB TJS TMT TND TOP TRY TTD TWD TZS UAH
UGX USD UYU UZS VES VND VUV WST XAF XCD XOF XPF YER ZAR ZMW ZWL`

var currencies = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, code := range strings.Fields(currencyCodes) {
		set[code] = struct{}{}
	}
	return set
}()

// IsCurrency reports whether code is a supported ISO 4217 currency code.
func IsCurrency(code string) bool {
	_, ok := currencies[code]
	return ok
}

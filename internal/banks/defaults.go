package banks

// Default returns the built-in list of banks that issue CNAB files.
func Default() []Bank {
	both := []string{"cnab240", "cnab400"}
	only240 := []string{"cnab240"}
	return []Bank{
		{Code: "001", Name: "Banco do Brasil S.A.", ShortName: "BANCO DO BRASIL", Formats: both},
		{Code: "004", Name: "Banco do Nordeste do Brasil S.A.", ShortName: "BNB", Formats: both},
		{Code: "021", Name: "Banestes S.A.", ShortName: "BANESTES", Formats: both},
		{Code: "033", Name: "Banco Santander (Brasil) S.A.", ShortName: "SANTANDER", Formats: both},
		{Code: "041", Name: "Banco do Estado do Rio Grande do Sul S.A.", ShortName: "BANRISUL", Formats: both},
		{Code: "070", Name: "BRB - Banco de Brasilia S.A.", ShortName: "BRB", Formats: both},
		{Code: "077", Name: "Banco Inter S.A.", ShortName: "INTER", Formats: both},
		{Code: "104", Name: "Caixa Economica Federal", ShortName: "CAIXA", Formats: both},
		{Code: "136", Name: "Unicred do Brasil", ShortName: "UNICRED", Formats: both},
		{Code: "208", Name: "Banco BTG Pactual S.A.", ShortName: "BTG PACTUAL", Formats: only240},
		{Code: "212", Name: "Banco Original S.A.", ShortName: "ORIGINAL", Formats: only240},
		{Code: "237", Name: "Banco Bradesco S.A.", ShortName: "BRADESCO", Formats: both},
		{Code: "260", Name: "Nu Pagamentos S.A.", ShortName: "NUBANK", Formats: only240},
		{Code: "336", Name: "Banco C6 S.A.", ShortName: "C6 BANK", Formats: only240},
		{Code: "341", Name: "Itau Unibanco S.A.", ShortName: "ITAU", Formats: both},
		{Code: "389", Name: "Banco Mercantil do Brasil S.A.", ShortName: "MERCANTIL", Formats: both},
		{Code: "422", Name: "Banco Safra S.A.", ShortName: "SAFRA", Formats: both},
		{Code: "633", Name: "Banco Rendimento S.A.", ShortName: "RENDIMENTO", Formats: both},
		{Code: "745", Name: "Banco Citibank S.A.", ShortName: "CITIBANK", Formats: only240},
		{Code: "748", Name: "Banco Cooperativo Sicredi S.A.", ShortName: "SICREDI", Formats: both},
		{Code: "756", Name: "Banco Cooperativo do Brasil S.A.", ShortName: "SICOOB", Formats: both},
	}
}

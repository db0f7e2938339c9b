// Package fiscal defines the wire contract shared with the backend
// solicitação service and the document-ingestion step: the extracted
// fiscal-document record (XmlData), the request form and submission
// payload, and the backend response envelopes.
package fiscal

// Document and process tags used on the wire.
const (
	TipoDocumentoNotaFiscal = "NotaFiscal"
	OrigemPedidos           = "Pedidos"
	TipoProcessoPagamentoNF = "PagamentoNotaFiscal"

	// StatusErro is the only backend status with defined semantics; any
	// other status combined with success=true is treated as approved.
	StatusErro = "Erro"
)

// XmlData holds the fields extracted from an uploaded fiscal document
// (NF-e/NFS-e XML). It is produced by the ingestion step and is
// read-only for the wizard core.
type XmlData struct {
	ID                            string  `json:"id"`
	NomeArquivo                   string  `json:"nomeArquivo"`
	Hash                          string  `json:"hash"`
	TipoNota                      string  `json:"tipoNota"`
	ChaveAcesso                   string  `json:"chaveAcesso"`
	Numero                        int     `json:"numero"`
	Serie                         int     `json:"serie"`
	Modelo                        string  `json:"modelo"`
	DataEmissao                   string  `json:"dataEmissao"`
	CnpjCpfEmitente               string  `json:"cnpjCpfEmitente"`
	NomeEmitente                  string  `json:"nomeEmitente"`
	NomeFantasiaEmitente          string  `json:"nomeFantasiaEmitente"`
	InscricaoEstadualEmitente     string  `json:"inscricaoEstadualEmitente"`
	UFEmitente                    string  `json:"ufEmitente"`
	MunicipioEmitente             string  `json:"municipioEmitente"`
	CnpjCpfDestinatario           string  `json:"cnpjCpfDestinatario"`
	NomeDestinatario              string  `json:"nomeDestinatario"`
	InscricaoEstadualDestinatario string  `json:"inscricaoEstadualDestinatario"`
	UFDestinatario                string  `json:"ufDestinatario"`
	MunicipioDestinatario         string  `json:"municipioDestinatario"`
	ValorTotal                    float64 `json:"valorTotal"`
	ValorProdutos                 float64 `json:"valorProdutos"`
	ValorServicos                 float64 `json:"valorServicos"`
	BaseCalculoICMS               float64 `json:"baseCalculoICMS"`
	ValorICMS                     float64 `json:"valorICMS"`
	BaseCalculoICMSST             float64 `json:"baseCalculoICMSST"`
	ValorICMSST                   float64 `json:"valorICMSST"`
	ValorIPI                      float64 `json:"valorIPI"`
	ValorPIS                      float64 `json:"valorPIS"`
	ValorCOFINS                   float64 `json:"valorCOFINS"`
	ValorII                       float64 `json:"valorII"`
	ValorISS                      float64 `json:"valorISS"`
	Status                        string  `json:"status"`
	StatusDescricao               string  `json:"statusDescricao"`
	TipoEmissao                   string  `json:"tipoEmissao"`
	QuantidadeItens               int     `json:"quantidadeItens"`
	InformacoesFisco              string  `json:"informacoesFisco"`
	FinalidadeEmissao             string  `json:"finalidadeEmissao"`
	TipoOperacao                  string  `json:"tipoOperacao"`
	NaturezaOperacao              string  `json:"naturezaOperacao"`
	DataCompetencia               string  `json:"dataCompetencia"`
	ItemListaServicos             string  `json:"itemListaServicos"`
	CodigoCNAE                    string  `json:"codigoCNAE"`
	DiscriminacaoServico          string  `json:"discriminacaoServico"`
	CodigoServicoMunicipio        string  `json:"codigoServicoMunicipio"`
	MunicipioIncidencia           string  `json:"municipioIncidencia"`
	ValorDeducoes                 float64 `json:"valorDeducoes"`
	AliquotaISS                   float64 `json:"aliquotaISS"`
	ValorLiquido                  float64 `json:"valorLiquido"`
	RetencaoFederal               bool    `json:"retencaoFederal"`
}

// PedidoForm is the mutable request form filled in by the user before
// submission. Seeded from XmlData when available.
type PedidoForm struct {
	Origem            string  `json:"origem"`
	TipoProcesso      string  `json:"tipoProcesso"`
	ValorTotal        float64 `json:"valorTotal"`
	CodigoPessoa      string  `json:"codigoPessoa"`
	IDContaBancaria   string  `json:"idContaBancaria"`
	CPFBeneficiario   string  `json:"cpfBeneficiario"`
	CodigoEmissor     string  `json:"codigoEmissor"`
	CnpjEmissor       string  `json:"cnpjEmissor"`
	CodigoCnaeEmissor string  `json:"codigoCnaeEmissor"`
	CodigoProjeto     string  `json:"codigoProjeto"`
	SubProjeto        int     `json:"subProjeto"`
	Rubrica           string  `json:"rubrica"`
	ContaRazao        string  `json:"contaRazao"`
	CentroDeCusto     string  `json:"centroDeCusto"`
	NumeroPedido      int     `json:"numeroPedido"`
	Justificativa     string  `json:"justificativa"`
}

// NewPedidoForm builds a form with default tags, seeding total value and
// issuer fields from the extracted document when present.
func NewPedidoForm(xml *XmlData) PedidoForm {
	form := PedidoForm{
		Origem:       OrigemPedidos,
		TipoProcesso: TipoProcessoPagamentoNF,
	}
	if xml != nil {
		form.ValorTotal = xml.ValorTotal
		form.CnpjEmissor = xml.CnpjCpfEmitente
		form.CodigoCnaeEmissor = xml.CodigoCNAE
	}
	return form
}

// ToBody composes the submission payload from the form plus exactly one
// fiscal-document reference derived from the extracted document.
func (f PedidoForm) ToBody(xml *XmlData) SolicitacaoBody {
	doc := DocumentoFiscal{TipoDocumento: TipoDocumentoNotaFiscal}
	if xml != nil {
		doc.IDDocumentoFiscalExterno = xml.ID
		doc.ChaveAcessoNf = xml.ChaveAcesso
		doc.DataEmissao = xml.DataEmissao
	}
	return SolicitacaoBody{
		Origem:            f.Origem,
		TipoProcesso:      f.TipoProcesso,
		ValorTotal:        f.ValorTotal,
		CodigoPessoa:      f.CodigoPessoa,
		IDContaBancaria:   f.IDContaBancaria,
		CPFBeneficiario:   f.CPFBeneficiario,
		CodigoEmissor:     f.CodigoEmissor,
		CnpjEmissor:       f.CnpjEmissor,
		CodigoCnaeEmissor: f.CodigoCnaeEmissor,
		CodigoProjeto:     f.CodigoProjeto,
		SubProjeto:        f.SubProjeto,
		Rubrica:           f.Rubrica,
		ContaRazao:        f.ContaRazao,
		CentroDeCusto:     f.CentroDeCusto,
		NumeroPedido:      f.NumeroPedido,
		Justificativa:     f.Justificativa,
		DocumentosFiscais: []DocumentoFiscal{doc},
	}
}

// SolicitacaoBody is the create-request payload.
type SolicitacaoBody struct {
	Origem            string            `json:"origem" validate:"required"`
	TipoProcesso      string            `json:"tipoProcesso" validate:"required"`
	ValorTotal        float64           `json:"valorTotal"`
	CodigoPessoa      string            `json:"codigoPessoa"`
	IDContaBancaria   string            `json:"idContaBancaria"`
	CPFBeneficiario   string            `json:"cpfBeneficiario"`
	CodigoEmissor     string            `json:"codigoEmissor"`
	CnpjEmissor       string            `json:"cnpjEmissor"`
	CodigoCnaeEmissor string            `json:"codigoCnaeEmissor"`
	CodigoProjeto     string            `json:"codigoProjeto"`
	SubProjeto        int               `json:"subProjeto"`
	Rubrica           string            `json:"rubrica"`
	ContaRazao        string            `json:"contaRazao"`
	CentroDeCusto     string            `json:"centroDeCusto"`
	NumeroPedido      int               `json:"numeroPedido"`
	Justificativa     string            `json:"justificativa"`
	DocumentosFiscais []DocumentoFiscal `json:"documentosFiscais" validate:"required,min=1,dive"`
}

// DocumentoFiscal references the fiscal document backing a solicitação.
type DocumentoFiscal struct {
	TipoDocumento            string `json:"tipoDocumento" validate:"required"`
	IDDocumentoFiscalExterno string `json:"idDocumentoFiscalExterno"`
	ChaveAcessoNf            string `json:"chaveAcessoNf"`
	DataEmissao              string `json:"dataEmissao"`
}

// SolicitacaoResumo is the created-resource summary returned by the
// create-request call.
type SolicitacaoResumo struct {
	ID           int64   `json:"id"`
	TipoProcesso string  `json:"tipoProcesso"`
	Origem       string  `json:"origem"`
	ValorTotal   float64 `json:"valorTotal"`
	NumeroPedido int     `json:"numeroPedido"`
}

// SolicitacaoResponse is the create-request response envelope.
type SolicitacaoResponse struct {
	Success   bool               `json:"success"`
	Data      *SolicitacaoResumo `json:"data,omitempty"`
	Message   string             `json:"message"`
	Errors    []string           `json:"errors"`
	Timestamp string             `json:"timestamp"`
}

// Beneficiario identifies the payee of a solicitação.
type Beneficiario struct {
	CodigoPessoa    string `json:"codigoPessoa"`
	IDContaBancaria string `json:"idContaBancaria"`
	CPFBeneficiario string `json:"cpfBeneficiario"`
}

// Emissor identifies the issuer of the backing fiscal document.
type Emissor struct {
	CodigoEmissor     string `json:"codigoEmissor"`
	CnpjEmissor       string `json:"cnpjEmissor"`
	CodigoCnaeEmissor string `json:"codigoCnaeEmissor"`
}

// DadosContabeis carries the accounting allocation of a solicitação.
type DadosContabeis struct {
	CodigoProjeto string `json:"codigoProjeto"`
	SubProjeto    int    `json:"subProjeto"`
	Rubrica       string `json:"rubrica"`
	ContaRazao    string `json:"contaRazao"`
	CentroDeCusto string `json:"centroDeCusto"`
}

// DocumentoFiscalDetalhe is a fiscal-document reference as echoed by the
// detail-query call.
type DocumentoFiscalDetalhe struct {
	ID                       int64  `json:"id"`
	TipoDocumento            string `json:"tipoDocumento"`
	IDDocumentoFiscalExterno string `json:"idDocumentoFiscalExterno"`
	ChaveAcessoNf            string `json:"chaveAcessoNf"`
	DataEmissao              string `json:"dataEmissao"`
}

// SolicitacaoDetalhe is the detail record of a previously created
// solicitação. Erros carries the backend's free-text diagnostic when the
// request failed processing.
type SolicitacaoDetalhe struct {
	ID                int64                    `json:"id"`
	Origem            string                   `json:"origem"`
	TipoProcesso      string                   `json:"tipoProcesso"`
	Status            string                   `json:"status"`
	DataCriacao       string                   `json:"dataCriacao"`
	ValorTotal        float64                  `json:"valorTotal"`
	NumeroPedido      int                      `json:"numeroPedido"`
	Justificativa     string                   `json:"justificativa"`
	Erros             string                   `json:"erros"`
	Beneficiario      Beneficiario             `json:"beneficiario"`
	Emissor           Emissor                  `json:"emissor"`
	DadosContabeis    DadosContabeis           `json:"dadosContabeis"`
	DocumentosFiscais []DocumentoFiscalDetalhe `json:"documentosFiscais"`
}

// SolicitacaoDetailResponse is the detail-query response envelope.
type SolicitacaoDetailResponse struct {
	Success   bool                `json:"success"`
	Data      *SolicitacaoDetalhe `json:"data,omitempty"`
	Message   string              `json:"message"`
	Errors    []string            `json:"errors"`
	Timestamp string              `json:"timestamp"`
}

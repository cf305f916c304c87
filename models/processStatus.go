package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

type ProcessStatus string

const (
	ProcessStatusAwaitingDocuments  ProcessStatus = "AGUARDANDO_DOCUMENTOS"
	ProcessStatusDocumentsReceived  ProcessStatus = "DOCUMENTOS_RECEBIDOS"
	ProcessStatusUnderAnalysis      ProcessStatus = "EM_ANALISE"
	ProcessStatusAwaitingPayment    ProcessStatus = "AGUARDANDO_PAGAMENTO"
	ProcessStatusPaymentConfirmed   ProcessStatus = "PAGAMENTO_CONFIRMADO"
	ProcessStatusProcessing         ProcessStatus = "EM_PROCESSAMENTO"
	ProcessStatusAwaitingInspection ProcessStatus = "AGUARDANDO_VISTORIA"
	ProcessStatusInspectionDone     ProcessStatus = "VISTORIA_REALIZADA"
	ProcessStatusFinalized          ProcessStatus = "FINALIZADO"
	ProcessStatusCancelled          ProcessStatus = "CANCELADO"
	ProcessStatusError              ProcessStatus = "ERRO"
)

// AllProcessStatuses lists the workflow stages in their natural order.
var AllProcessStatuses = []ProcessStatus{
	ProcessStatusAwaitingDocuments,
	ProcessStatusDocumentsReceived,
	ProcessStatusUnderAnalysis,
	ProcessStatusAwaitingPayment,
	ProcessStatusPaymentConfirmed,
	ProcessStatusProcessing,
	ProcessStatusAwaitingInspection,
	ProcessStatusInspectionDone,
	ProcessStatusFinalized,
	ProcessStatusCancelled,
	ProcessStatusError,
}

type ProcessBucket string

const (
	BucketPending    ProcessBucket = "pending"
	BucketInProgress ProcessBucket = "in_progress"
	BucketDone       ProcessBucket = "done"
	BucketCancelled  ProcessBucket = "cancelled"
)

var AllProcessBuckets = []ProcessBucket{BucketPending, BucketInProgress, BucketDone, BucketCancelled}

// processStatusBuckets is the only status -> bucket table. Lists, counts,
// dashboards and the mobile API all derive from it.
var processStatusBuckets = map[ProcessStatus]ProcessBucket{
	ProcessStatusAwaitingDocuments:  BucketPending,
	ProcessStatusDocumentsReceived:  BucketPending,
	ProcessStatusAwaitingPayment:    BucketPending,
	ProcessStatusUnderAnalysis:      BucketInProgress,
	ProcessStatusPaymentConfirmed:   BucketInProgress,
	ProcessStatusProcessing:         BucketInProgress,
	ProcessStatusAwaitingInspection: BucketInProgress,
	ProcessStatusInspectionDone:     BucketInProgress,
	ProcessStatusFinalized:          BucketDone,
	ProcessStatusCancelled:          BucketCancelled,
	ProcessStatusError:              BucketCancelled,
}

var processStatusLabels = map[ProcessStatus]string{
	ProcessStatusAwaitingDocuments:  "Aguardando Docs",
	ProcessStatusDocumentsReceived:  "Docs Recebidos",
	ProcessStatusUnderAnalysis:      "Em Análise",
	ProcessStatusAwaitingPayment:    "Aguardando Pagamento",
	ProcessStatusPaymentConfirmed:   "Pagamento Confirmado",
	ProcessStatusProcessing:         "Em Processamento",
	ProcessStatusAwaitingInspection: "Aguardando Vistoria",
	ProcessStatusInspectionDone:     "Vistoria Realizada",
	ProcessStatusFinalized:          "Finalizado",
	ProcessStatusCancelled:          "Cancelado",
	ProcessStatusError:              "Erro",
}

var ErrUnknownProcessStatus = errors.New("unknown process status")

// NormalizeProcessStatus canonicalises free-form input: "em processamento",
// "em-processamento" and "EM_PROCESSAMENTO" are the same status.
func NormalizeProcessStatus(raw string) ProcessStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return ProcessStatus(s)
}

func (s ProcessStatus) IsValid() bool {
	_, ok := processStatusBuckets[s]
	return ok
}

// ParseProcessStatus validates client input against the closed vocabulary.
func ParseProcessStatus(raw string) (ProcessStatus, error) {
	s := NormalizeProcessStatus(raw)
	if !s.IsValid() {
		return "", utils.NewValidationError("status", fmt.Sprintf("invalid status %q", raw))
	}
	return s, nil
}

// BucketOf maps a status to its bucket. Unknown statuses are an error, never a guess.
func BucketOf(status ProcessStatus) (ProcessBucket, error) {
	b, ok := processStatusBuckets[NormalizeProcessStatus(string(status))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProcessStatus, status)
	}
	return b, nil
}

// ClassifyStatus applies the environment policy on top of BucketOf: a status
// outside the table panics outside production and counts as pending in production.
func ClassifyStatus(status ProcessStatus) ProcessBucket {
	return classifyStatus(status, config.IsProduction())
}

func classifyStatus(status ProcessStatus, production bool) ProcessBucket {
	b, err := BucketOf(status)
	if err == nil {
		return b
	}
	if !production {
		panic(err)
	}
	config.LogError(config.GetLogger(), "ProcessStatus", "ClassifyStatus", "unmapped status counted as pending", status, err)
	return BucketPending
}

// StatusesInBucket is the reverse of the bucket table, in workflow order.
func StatusesInBucket(bucket ProcessBucket) []ProcessStatus {
	var statuses []ProcessStatus
	for _, s := range AllProcessStatuses {
		if processStatusBuckets[s] == bucket {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

// ParseBucket accepts the bucket names plus the common aliases used by the web filters.
func ParseBucket(raw string) (ProcessBucket, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "pendente", "pendentes":
		return BucketPending, nil
	case "in_progress", "in-progress", "andamento", "em_andamento":
		return BucketInProgress, nil
	case "done", "finalized", "finalizado", "finalizados", "concluido":
		return BucketDone, nil
	case "cancelled", "canceled", "cancelado", "cancelados":
		return BucketCancelled, nil
	}
	return "", utils.NewValidationError("bucket", fmt.Sprintf("invalid bucket %q", raw))
}

func StatusLabel(status ProcessStatus) string {
	if label, ok := processStatusLabels[status]; ok {
		return label
	}
	return string(status)
}

/* mobile vocabulary */

type MobileStatus string

const (
	MobileStatusWaiting    MobileStatus = "aguardando"
	MobileStatusInProgress MobileStatus = "andamento"
	MobileStatusFinalized  MobileStatus = "finalizado"
	MobileStatusCancelled  MobileStatus = "cancelado"
)

var bucketMobileStatus = map[ProcessBucket]MobileStatus{
	BucketPending:    MobileStatusWaiting,
	BucketInProgress: MobileStatusInProgress,
	BucketDone:       MobileStatusFinalized,
	BucketCancelled:  MobileStatusCancelled,
}

func MobileStatusOf(status ProcessStatus) MobileStatus {
	return bucketMobileStatus[ClassifyStatus(status)]
}

// StatusesForMobile expands a mobile filter into the persisted statuses it covers.
func StatusesForMobile(raw string) ([]ProcessStatus, error) {
	m := MobileStatus(strings.ToLower(strings.TrimSpace(raw)))
	for bucket, ms := range bucketMobileStatus {
		if ms == m {
			return StatusesInBucket(bucket), nil
		}
	}
	return nil, utils.NewValidationError("status", fmt.Sprintf("invalid status %q", raw))
}

/* service type */

type ServiceType string

const (
	ServiceTypeLicensing            ServiceType = "LICENCIAMENTO"
	ServiceTypeTransfer             ServiceType = "TRANSFERENCIA"
	ServiceTypeFirstRegistration    ServiceType = "PRIMEIRO_EMPLACAMENTO"
	ServiceTypeDuplicateDocument    ServiceType = "SEGUNDA_VIA"
	ServiceTypeUnlock               ServiceType = "DESBLOQUEIO"
	ServiceTypeCharacteristicChange ServiceType = "ALTERACAO_CARACTERISTICAS"
	ServiceTypeDeregistration       ServiceType = "BAIXA"
	ServiceTypeLienInclusion        ServiceType = "INCLUSAO_GRAVAME"
	ServiceTypeLienExclusion        ServiceType = "EXCLUSAO_GRAVAME"
	ServiceTypeMunicipalityChange   ServiceType = "MUDANCA_MUNICIPIO"
	ServiceTypeStateChange          ServiceType = "MUDANCA_ESTADO"
	ServiceTypeFineRegularization   ServiceType = "REGULARIZACAO_MULTAS"
)

var serviceTypeLabels = map[ServiceType]string{
	ServiceTypeLicensing:            "Licenciamento",
	ServiceTypeTransfer:             "Transferência",
	ServiceTypeFirstRegistration:    "Primeiro Emplacamento",
	ServiceTypeDuplicateDocument:    "Segunda Via",
	ServiceTypeUnlock:               "Desbloqueio",
	ServiceTypeCharacteristicChange: "Alteração de Características",
	ServiceTypeDeregistration:       "Baixa",
	ServiceTypeLienInclusion:        "Inclusão de Gravame",
	ServiceTypeLienExclusion:        "Exclusão de Gravame",
	ServiceTypeMunicipalityChange:   "Mudança de Município",
	ServiceTypeStateChange:          "Mudança de Estado",
	ServiceTypeFineRegularization:   "Regularização de Multas",
}

func (s ServiceType) IsValid() bool {
	_, ok := serviceTypeLabels[s]
	return ok
}

func ServiceTypeLabel(s ServiceType) string {
	if label, ok := serviceTypeLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseServiceType accepts the enum value or its display label as sent by the mobile app.
func ParseServiceType(raw string) (ServiceType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", utils.RequiredField("service_type")
	}
	if s := ServiceType(NormalizeProcessStatus(trimmed)); s.IsValid() {
		return s, nil
	}
	for s, label := range serviceTypeLabels {
		if strings.EqualFold(label, trimmed) {
			return s, nil
		}
	}
	return "", utils.NewValidationError("service_type", fmt.Sprintf("invalid service type %q", raw))
}

/* priority */

type ProcessPriority string

const (
	PriorityLow    ProcessPriority = "BAIXA"
	PriorityMedium ProcessPriority = "MEDIA"
	PriorityHigh   ProcessPriority = "ALTA"
	PriorityUrgent ProcessPriority = "URGENTE"
)

// ParsePriority defaults an empty value to MEDIA.
func ParsePriority(raw string) (ProcessPriority, error) {
	p := ProcessPriority(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", utils.NewValidationError("priority", fmt.Sprintf("invalid priority %q", raw))
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDENTE"
	PaymentStatusPaid     PaymentStatus = "PAGO"
	PaymentStatusPartial  PaymentStatus = "PARCIAL"
	PaymentStatusRefunded PaymentStatus = "ESTORNADO"
)

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	p := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PaymentStatusPending, nil
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusPartial, PaymentStatusRefunded:
		return p, nil
	}
	return "", utils.NewValidationError("payment_status", fmt.Sprintf("invalid payment status %q", raw))
}

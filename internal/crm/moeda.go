package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Moeda guarda valores em reais como número. Na entrada aceita também
// texto formatado ("R$ 450.000,00").
type Moeda float64

// UnmarshalJSON aceita número, string numérica ou string em formato BRL.
func (m *Moeda) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("valor inválido: %w", err)
		}
		*m = Moeda(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseMoeda(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// milharBR casa inteiros com ponto como separador de milhar ("450.000").
var milharBR = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// ParseMoeda interpreta "R$ 1.234,56", "R$ 450.000", "-R$ 10,00", "1234,56" ou
// "1234.56". Sem vírgula, pontos em grupos de três dígitos são milhar.
func ParseMoeda(s string) (Moeda, error) {
	raw := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)

	negative := false
	if rest, ok := strings.CutPrefix(raw, "-"); ok {
		negative, raw = true, rest
	}
	raw = strings.TrimPrefix(raw, "R$")
	if rest, ok := strings.CutPrefix(raw, "-"); ok && !negative {
		negative, raw = true, rest
	}
	if raw == "" {
		if negative {
			return 0, fmt.Errorf("valor inválido: %q", s)
		}
		return 0, nil
	}
	if strings.ContainsAny(raw[:1], "+-") {
		return 0, fmt.Errorf("valor inválido: %q", s)
	}

	switch {
	case strings.Contains(raw, ","):
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case milharBR.MatchString(raw):
		raw = strings.ReplaceAll(raw, ".", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("valor inválido: %q", s)
	}
	if negative {
		f = -f
	}
	return Moeda(f), nil
}

// String formata no padrão brasileiro, apenas para exibição.
func (m Moeda) String() string {
	cents := int64(math.Round(math.Abs(float64(m)) * 100))
	intPart := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if m < 0 {
		b.WriteString("-")
	}
	b.WriteString("R$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	fmt.Fprintf(&b, ",%02d", cents%100)
	return b.String()
}

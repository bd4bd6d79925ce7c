package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Substantial-content thresholds distinguishing a real page from a
// bot-block stub or skeleton.
const (
	substantialMinBodyChars = 400
	forbiddenStubMaxChars   = 800
	substantialMinElements  = 15

	structurallyEmptyMaxElements = 10
	structurallyEmptyMaxChars    = 200
)

// ContentClassifier decides Parked / Broken / Ok from rendered-page signals.
// All configuration is injected; nothing is read from ambient process state.
type ContentClassifier struct {
	rules         RuleSet
	oracle        Oracle
	oracleTimeout time.Duration
	summaryBudget int
	logger        *zap.Logger
}

// NewContentClassifier builds a classifier. A nil oracle disables
// disambiguation entirely; verdicts then behave as if the oracle always
// answered inconclusive.
func NewContentClassifier(rules RuleSet, oracle Oracle, oracleTimeout time.Duration, summaryBudget int, logger *zap.Logger) *ContentClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if oracleTimeout <= 0 {
		oracleTimeout = 15 * time.Second
	}
	if summaryBudget <= 0 {
		summaryBudget = 1500
	}
	return &ContentClassifier{
		rules:         rules,
		oracle:        oracle,
		oracleTimeout: oracleTimeout,
		summaryBudget: summaryBudget,
		logger:        logger,
	}
}

// Substantial reports whether the page carries enough real content to be
// treated as richly loaded. Failing this test is not itself a parked or
// broken signal; it only disqualifies the page from the 403 Ok path.
func Substantial(sig ClassificationSignals) bool {
	if sig.BodyLength < substantialMinBodyChars {
		return false
	}
	if sig.ElementCount < substantialMinElements {
		return false
	}
	if sig.BodyLength < forbiddenStubMaxChars && isForbiddenStub(sig.BodyText) {
		return false
	}
	return true
}

func isForbiddenStub(lowerBody string) bool {
	return strings.Contains(lowerBody, "forbidden") || strings.Contains(lowerBody, "access denied")
}

// Classify runs the ordered decision tree over the signals. httpStatus is
// the observed code, or 0 when none arrived with the document. The returned
// note explains which heuristic fired.
func (c *ContentClassifier) Classify(ctx context.Context, sig ClassificationSignals, httpStatus int) (Status, string) {
	if phrase, ok := c.rules.MatchParked(sig.Title, sig.BodyText); ok {
		verdict := c.consultOracle(ctx, sig)
		if verdict != VerdictNormal {
			note := fmt.Sprintf("parked phrase %q matched", phrase)
			if verdict == VerdictConfirmedParked {
				note += ", confirmed by oracle"
			}
			return StatusParked, note
		}
		c.logger.Debug("oracle overrode parked match",
			zap.String("phrase", phrase),
			zap.String("title", sig.Title),
		)
	}

	if phrase, ok := c.rules.MatchBroken(sig.Title, sig.BodyText); ok {
		return StatusBroken, fmt.Sprintf("error phrase %q matched", phrase)
	}
	if sig.ElementCount < structurallyEmptyMaxElements && sig.BodyLength < structurallyEmptyMaxChars {
		return StatusBroken, fmt.Sprintf("structurally empty page (%d elements, %d chars)", sig.ElementCount, sig.BodyLength)
	}

	// Absence of a negative signal is treated as health, for 2xx and for
	// documents that loaded without an observable status alike.
	if httpStatus == 0 {
		return StatusOK, "content loaded, no status observed"
	}
	return StatusOK, fmt.Sprintf("HTTP %d", httpStatus)
}

// consultOracle asks the disambiguation oracle to confirm a parked match.
// Unavailability, errors, and timeouts all read as inconclusive so the
// keyword verdict stands; the oracle can only ever downgrade to normal.
func (c *ContentClassifier) consultOracle(ctx context.Context, sig ClassificationSignals) OracleVerdict {
	if c.oracle == nil {
		return VerdictInconclusive
	}
	oracleCtx, cancel := context.WithTimeout(ctx, c.oracleTimeout)
	defer cancel()

	verdict, err := c.oracle.Classify(oracleCtx, c.buildSummary(sig))
	if err != nil {
		c.logger.Warn("oracle classify failed", zap.Error(err))
		return VerdictInconclusive
	}
	return verdict
}

func (c *ContentClassifier) buildSummary(sig ClassificationSignals) string {
	var b strings.Builder
	if sig.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", sig.Title)
	}
	if sig.MetaDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", sig.MetaDescription)
	}
	b.WriteString(sig.BodyText)
	summary := b.String()
	if len(summary) > c.summaryBudget {
		summary = summary[:c.summaryBudget]
	}
	return summary
}

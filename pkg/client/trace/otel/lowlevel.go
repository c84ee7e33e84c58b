package otel

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/go-pixiv/pixiv/pkg/client/trace"
)

const (
	httpDNSSpanName          = httpSpanPrefix + "dns"
	httpGetConnSpanName      = httpSpanPrefix + "getconn"
	httpConnectSpanName      = httpSpanPrefix + "connect"
	httpTLSHandshakeSpanName = httpSpanPrefix + "tls"
	httpSendSpanName         = httpSpanPrefix + "send"
	httpReceiveSpanName      = httpSpanPrefix + "receive"
	attrDNSHost              = attribute.Key("http.dns.host")
	attrDNSAddresses         = attribute.Key("http.dns.addrs")
	attrRemoteAddr           = attribute.Key("http.remote")
	attrLocalAddr            = attribute.Key("http.local")
	attrConnectionReused     = attribute.Key("http.conn.reused")
	attrConnectionWasIdle    = attribute.Key("http.conn.wasidle")
	attrConnectionIdleTime   = attribute.Key("http.conn.idletime")
	attrConnectionNetwork    = attribute.Key("http.conn.network")
)

// registerLowLevelSpans adds native httptrace hooks. The receive span is ended by the HTTPRequestDone hook.
func registerLowLevelSpans(tc *trace.ClientTrace, tracer otelTrace.Tracer, httpCtx func() context.Context, setReceiveSpan func(otelTrace.Span)) {
	start := func(name string, attrs ...attribute.KeyValue) otelTrace.Span {
		ctx := httpCtx()
		if ctx == nil {
			ctx = context.Background()
		}
		_, span := tracer.Start(ctx, name, otelTrace.WithSpanKind(otelTrace.SpanKindClient), otelTrace.WithAttributes(attrs...))
		return span
	}
	end := func(span otelTrace.Span, err error) {
		if span == nil {
			return
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}

	// DNS
	var dnsSpan otelTrace.Span
	tc.DNSStart = func(info httptrace.DNSStartInfo) {
		dnsSpan = start(httpDNSSpanName, attrDNSHost.String(info.Host))
	}
	tc.DNSDone = func(info httptrace.DNSDoneInfo) {
		if dnsSpan != nil {
			var addrs []string
			for _, netAddr := range info.Addrs {
				addrs = append(addrs, netAddr.String())
			}
			dnsSpan.SetAttributes(attrDNSAddresses.String(strings.Join(addrs, ";")))
		}
		end(dnsSpan, info.Err)
		dnsSpan = nil
	}

	// Get connection
	var getConnSpan otelTrace.Span
	tc.GetConn = func(host string) {
		getConnSpan = start(httpGetConnSpanName, attrRemoteAddr.String(host))
	}
	tc.GotConn = func(info httptrace.GotConnInfo) {
		if getConnSpan != nil && info.Conn != nil {
			getConnSpan.SetAttributes(
				attrRemoteAddr.String(info.Conn.RemoteAddr().String()),
				attrLocalAddr.String(info.Conn.LocalAddr().String()),
				attrConnectionReused.Bool(info.Reused),
				attrConnectionWasIdle.Bool(info.WasIdle),
			)
			if info.WasIdle {
				getConnSpan.SetAttributes(attrConnectionIdleTime.String(info.IdleTime.String()))
			}
		}
		end(getConnSpan, nil)
		getConnSpan = nil
	}

	// Connect
	var connectSpan otelTrace.Span
	tc.ConnectStart = func(network, addr string) {
		connectSpan = start(httpConnectSpanName, attrRemoteAddr.String(addr), attrConnectionNetwork.String(network))
	}
	tc.ConnectDone = func(_, _ string, err error) {
		end(connectSpan, err)
		connectSpan = nil
	}

	// TLS handshake, it is not reported if the http2.Transport is used directly
	var tlsSpan otelTrace.Span
	tc.TLSHandshakeStart = func() {
		tlsSpan = start(httpTLSHandshakeSpanName)
	}
	tc.TLSHandshakeDone = func(_ tls.ConnectionState, err error) {
		end(tlsSpan, err)
		tlsSpan = nil
	}

	// Send
	var sendSpan otelTrace.Span
	tc.WroteHeaders = func() {
		sendSpan = start(httpSendSpanName)
	}
	tc.WroteRequest = func(info httptrace.WroteRequestInfo) {
		end(sendSpan, info.Err)
		sendSpan = nil
	}

	// Receive
	tc.GotFirstResponseByte = func() {
		setReceiveSpan(start(httpReceiveSpanName))
	}
}

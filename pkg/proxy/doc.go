// Package proxy implements the gateway's routing and forwarding decisions.
//
// For every incoming request the Gateway picks the first dependency whose
// patterns match the URL, serves a configured mock when one matches, and
// otherwise forwards the request to the dependency (or the source upstream)
// through a reverse proxy. Forwarded requests are tracked in a Registry so
// that the response can be logged with its method, URI and elapsed time, and
// the Recorder can write proxied response bodies to disk.
//
// Basic usage:
//
//	gw, err := proxy.NewGateway(cfg, proxy.GatewayOptions{
//		Reporter: reporter,
//		Logger:   logger,
//	})
//	if err != nil {
//		return err
//	}
//	defer gw.Close()
//	http.ListenAndServe(":8080", gw)
package proxy

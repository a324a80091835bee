/*
Package sockbridge provides a server implementation of the SockJS protocol.

A Handler exposes one logical bidirectional message stream (a Session) over
whichever transport the client manages to establish: websocket, xhr-streaming,
xhr-polling, eventsource, htmlfile or jsonp-polling. The application sees the
same Session regardless of the transport carrying it, and regardless of how
often the client rotates the underlying connection.

Example usage:

	handler := sockbridge.NewHandler("/echo", sockbridge.DefaultOptions, func(session *sockbridge.Session) {
		for {
			msg, err := session.Recv()
			if err != nil {
				break
			}
			if err := session.Send(msg); err != nil {
				break
			}
		}
	})
	http.ListenAndServe(":8080", handler)
*/
package sockbridge

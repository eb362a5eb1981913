// Package mqtt311 provides an MQTT v3.1.1 client with automatic
// reconnection and session state replay.
//
// This package implements the client side of the MQTT Version 3.1.1
// OASIS Standard:
// http://docs.oasis-open.org/mqtt/mqtt/v3.1.1/os/mqtt-v3.1.1-os.html
//
// # Features
//
//   - All 14 MQTT v3.1.1 control packet types
//   - QoS 0, 1, 2 message flows with retransmission on reconnect
//   - Automatic reconnection with configurable backoff
//   - Session state: subscriptions replayed, in-flight messages resumed
//   - Topic matching with wildcard support (+, #)
//   - Transport: TCP, TLS, WebSocket, WSS, Unix sockets, QUIC
//   - HTTP CONNECT and SOCKS5 proxy support
//
// # Client
//
// NewClient validates configuration without touching the network; the
// connection is established when the client is first used:
//
//	client, err := mqtt311.NewClient("tcp://localhost:1883",
//	    mqtt311.WithClientID("my-client"),
//	    mqtt311.WithKeepAlive(30*time.Second),
//	)
//
// Requests are submitted through handles, which are safe for concurrent
// use. A request blocks until the broker acknowledges it according to
// its QoS level:
//
//	err = client.PublishHandle().Publish(ctx, &mqtt311.Publication{
//	    Topic:   "sensors/temperature",
//	    Payload: []byte("21.5"),
//	    QoS:     mqtt311.QoS1,
//	})
//
//	err = client.SubscriptionHandle().Subscribe(ctx, "sensors/#", mqtt311.QoS1)
//	err = client.SubscriptionHandle().Unsubscribe(ctx, "sensors/#")
//
// The client reports what happens on the connection as an ordered event
// stream. Consume it with NextEvent:
//
//	for {
//	    ev, err := client.NextEvent(ctx)
//	    if err != nil {
//	        break // mqtt311.ErrClientClosed after shutdown
//	    }
//	    switch ev := ev.(type) {
//	    case *mqtt311.ConnectedEvent:
//	        log.Println("connected, session present:", ev.SessionPresent)
//	    case *mqtt311.PublicationEvent:
//	        log.Println("received:", ev.Publication.Topic)
//	    case *mqtt311.DisconnectedEvent:
//	        log.Println("connection lost:", ev.Err)
//	    }
//	}
//
// Shutdown sends DISCONNECT, closes the connection, and fails pending
// requests with ErrClientClosed:
//
//	err = client.ShutdownHandle().Shutdown(ctx)
//	<-client.Done()
//
// # Transports
//
// The connection scheme selects the transport:
//
//	mqtt311.NewClient("tcp://localhost:1883")        // plain TCP (also mqtt://)
//	mqtt311.NewClient("tls://localhost:8883")        // TLS (also ssl://, mqtts://)
//	mqtt311.NewClient("ws://localhost:8080/mqtt")    // WebSocket
//	mqtt311.NewClient("unix:///var/run/mqtt.sock")   // Unix domain socket
//	mqtt311.NewClient("quic://localhost:8883")       // QUIC
//
// TLS parameters come from WithTLS:
//
//	client, err := mqtt311.NewClient("tls://localhost:8883",
//	    mqtt311.WithTLS(&tls.Config{RootCAs: pool}),
//	)
//
// Custom transports implement the Dialer interface and are installed
// with WithDialer.
//
// # Reconnection and Sessions
//
// A lost connection is not an error the caller has to handle: the
// client reconnects with exponential backoff and re-establishes its
// state. With a clean session the client re-sends its subscriptions;
// with a persistent session (WithCleanSession(false)) the broker keeps
// them, and the client retransmits unacknowledged QoS 1 and 2 messages
// with the DUP flag set:
//
//	client, err := mqtt311.NewClient("tcp://localhost:1883",
//	    mqtt311.WithClientID("persistent-client"),
//	    mqtt311.WithCleanSession(false),
//	    mqtt311.WithBackoffBase(time.Second),
//	    mqtt311.WithMaxReconnectBackoff(time.Minute),
//	)
//
// Requests submitted while disconnected are queued and flushed after
// the next successful connect.
//
// # Packet Types
//
// The package exposes structs for all MQTT v3.1.1 control packets
// (ConnectPacket, ConnackPacket, PublishPacket, the acknowledgement
// packets, SubscribePacket, SubackPacket, UnsubscribePacket,
// UnsubackPacket, PingreqPacket, PingrespPacket, DisconnectPacket).
// Use ReadPacket and WritePacket to exchange them over a connection:
//
//	pkt, n, err := mqtt311.ReadPacket(conn, maxPacketSize)
//	n, err = mqtt311.WritePacket(conn, packet, maxPacketSize)
//
// # Topic Matching
//
// Topic validation and matching support MQTT wildcards:
//
//	err := mqtt311.ValidateTopicName("sensors/temperature")
//	err = mqtt311.ValidateTopicFilter("sensors/+/status")
//	matched := mqtt311.TopicMatch("sensors/#", "sensors/room1/temp")
//
// # Logging
//
// The client logs through the Logger interface; the default discards
// everything. NewStdLogger writes to an io.Writer:
//
//	logger := mqtt311.NewStdLogger(os.Stdout, mqtt311.LogLevelInfo)
//	client, err := mqtt311.NewClient("tcp://localhost:1883",
//	    mqtt311.WithLogger(logger),
//	)
package mqtt311
